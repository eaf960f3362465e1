// Package trainer fits the projection matrix to labeled (query, passage)
// pairs.
//
// The objective is binary cross-entropy over the projected similarity score
// treated as a logit. Each epoch is strictly full-batch: the gradient of
// every training pair is summed into one accumulator and exactly one Adam
// step is applied, trading convergence smoothness for simplicity at the small
// dataset sizes in scope. Validation pairs are scored with the freshly
// updated matrix and never produce gradient.
//
// The matrix must stay finite after every update. A NaN or infinite loss or
// weight aborts the run with a DivergedError carrying the epoch and the last
// finite validation loss; training never silently continues past a
// divergence.
package trainer
