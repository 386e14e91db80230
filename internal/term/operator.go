package term

// Operator is the connective of a compound term. The vocabulary is closed;
// the factory rejects anything else.
type Operator string

const (
	// Statement connectives
	OpInheritance Operator = "-->"
	OpSimilarity  Operator = "<->"
	OpImplication Operator = "==>"
	OpEquivalence Operator = "<=>"

	// Compound connectives
	OpIntersectionExt Operator = "&"
	OpIntersectionInt Operator = "|"
	OpConjunction     Operator = "&&"
	OpDisjunction     Operator = "||"
	OpSequence        Operator = "&/"
	OpProduct         Operator = "*"

	// Set constructors
	OpSetExt Operator = "{}"
	OpSetInt Operator = "[]"

	// Image constructors
	OpImageExt Operator = "/"
	OpImageInt Operator = `\`

	// Negation and predicate form
	OpNegation  Operator = "--"
	OpPredicate Operator = "^"
)

// properties describes the algebraic behavior of an operator.
type properties struct {
	commutative  bool // components sorted by canonical name
	associative  bool // nested same-operator compounds flattened
	idempotent   bool // duplicate components removed
	statement    bool // binary copula; reflexive form collapses to True
	decomposable bool // DecompositionStrategy may split it
}

var operatorTable = map[Operator]properties{
	OpInheritance: {statement: true, decomposable: true},
	OpSimilarity:  {statement: true, commutative: true, decomposable: true},
	OpImplication: {statement: true, decomposable: true},
	OpEquivalence: {statement: true, commutative: true, decomposable: true},

	OpIntersectionExt: {commutative: true, associative: true, idempotent: true, decomposable: true},
	OpIntersectionInt: {commutative: true, associative: true, idempotent: true, decomposable: true},
	OpConjunction:     {commutative: true, associative: true, idempotent: true, decomposable: true},
	OpDisjunction:     {commutative: true, associative: true, idempotent: true, decomposable: true},
	OpSequence:        {associative: true},
	OpProduct:         {decomposable: true},

	OpSetExt: {commutative: true, idempotent: true, decomposable: true},
	OpSetInt: {commutative: true, idempotent: true},

	OpImageExt: {},
	OpImageInt: {},

	OpNegation:  {},
	OpPredicate: {},
}

// KnownOperator reports whether op is part of the closed vocabulary.
func KnownOperator(op Operator) bool {
	_, ok := operatorTable[op]
	return ok
}

// IsStatement reports whether op is a statement copula.
func IsStatement(op Operator) bool {
	return operatorTable[op].statement
}

// IsDecomposable reports whether the decomposition strategy may split
// compounds built with op.
func IsDecomposable(op Operator) bool {
	return operatorTable[op].decomposable
}
