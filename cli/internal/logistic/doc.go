// Package logistic provides the probabilistic classifier used by the demo:
// a numerically stable sigmoid and an L2-regularised logistic regression
// fitted with gonum's BFGS optimiser.
//
// The evaluator never depends on this package. Anything that implements
// Classifier can produce the probabilities it scores.
package logistic
