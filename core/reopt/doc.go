// Package reopt derives the inputs of a re-optimization cycle from the state
// of the world. It classifies every task of the prior schedule against the
// reference time and folds reported delays into a working copy of that
// schedule; both feed the fixed constraints the next model build must honor.
// All functions are pure with respect to their inputs; the prior solution is
// never mutated.
package reopt
