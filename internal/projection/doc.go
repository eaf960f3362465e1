// Package projection implements the learned similarity core: a trainable D×D
// matrix and the baseline/projected scoring functions built on it.
//
// Baseline similarity is the plain dot product of two embeddings and is
// symmetric. Projected similarity is the bilinear form qᵀ·P·p: the query
// embedding is re-weighted by the matrix before comparison, which lets a
// trained matrix rank code passages for natural-language queries better than
// the symmetric score. With P = identity the two scores coincide, so an
// untrained system degrades gracefully to baseline ranking.
//
//	m := projection.Identity(dim)
//	score, err := projection.Projected(queryVec, passageVec, m)
//
// For corpus scans, project the query once and reuse it:
//
//	pq, _ := projection.ProjectQuery(queryVec, m)
//	for _, passage := range corpus {
//	    score := projection.DotProjected(pq, passageVec)
//	}
package projection
