// Package mdpcore is your in-process core for checking PCTL, reward-PCTL
// and multi-objective queries against Markov decision processes and Markov
// automata.
//
// 🚀 What is mdpcore?
//
//	A modular Go toolkit that brings together:
//
//	  • Sparse, row-grouped transition matrices for MDP/MA state spaces
//	  • Graph analysis: reachability, SCCs, bottom SCCs, maximal end components
//	  • MinMax linear-equation solvers: value iteration, policy iteration, LP
//	  • A PCTL/CSL-style model checker with until, reward and conditional operators
//	  • A multi-objective checker: Pareto curves, achievability, quantitative queries
//
// ✨ Why choose mdpcore?
//
//   - Generic over numeric representation — float64 or exact rationals
//   - Extensible — pluggable MinMax/linear-equation solver factories
//   - Pure Go — no cgo; gonum for dense linear algebra where it matters
//
// Under the hood, everything is organized under focused subpackages:
//
//	bitset/        — fixed-size bit sets used throughout as state/choice masks
//	numeric/       — the Value interface and its float64/rational implementations
//	sparsematrix/  — row-grouped sparse transition matrices and builders
//	graphanalysis/ — reachability, SCC, BSCC and end-component algorithms
//	eliminator/    — zero-reward end-component collapsing for reward checks
//	minmax/        — MinMax and linear equation solvers (VI, PI, LP, gonum)
//	model/         — shared Formula/Options/RewardModel/error types
//	pctl/          — the single-objective PCTL/CSL checker
//	multiobj/      — the multi-objective (Pareto/achievability/quantitative) checker
//
// See SPEC_FULL.md for the full operator and query surface.
package mdpcore
