// Package mcp exposes querylens over the Model Context Protocol on stdio.
//
// Three tools are served:
//   - train_projection: run the full train-and-evaluate pipeline on a
//     relevance dataset and report baseline vs projected MAP.
//   - search_code: rank a dataset's passages against a query, using the
//     matrix from a given run (or the most recent one; plain baseline when
//     nothing is trained yet).
//   - get_status: list recent runs and their scores.
//
// stdout carries the protocol, so all logging goes to stderr.
package mcp
