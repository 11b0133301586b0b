package finder

import (
	"sort"
	"strings"
)

// Op is a condition operator.
type Op int

// Condition operators.
const (
	EQ Op = iota
	NEQ
	GT
	GTE
	LT
	LTE
	Like
	NotLike
	StartsWith
	EndsWith
	Contains
	NotContains
	In
	NotIn
	Between
	IsNull
	NotNull
	IsTrue
	IsFalse
)

var opNames = [...]string{
	EQ:          "EQ",
	NEQ:         "NEQ",
	GT:          "GT",
	GTE:         "GTE",
	LT:          "LT",
	LTE:         "LTE",
	Like:        "LIKE",
	NotLike:     "NOT_LIKE",
	StartsWith:  "STARTS_WITH",
	EndsWith:    "ENDS_WITH",
	Contains:    "CONTAINS",
	NotContains: "NOT_CONTAINS",
	In:          "IN",
	NotIn:       "NOT_IN",
	Between:     "BETWEEN",
	IsNull:      "IS_NULL",
	NotNull:     "NOT_NULL",
	IsTrue:      "TRUE",
	IsFalse:     "FALSE",
}

// String returns the operator name.
func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "Op(?)"
}

// Arity returns the number of bind values the operator consumes.
func (o Op) Arity() int {
	switch o {
	case IsNull, NotNull, IsTrue, IsFalse:
		return 0
	case Between:
		return 2
	default:
		return 1
	}
}

// suffix maps a method-name keyword to its operator.
type suffix struct {
	word string
	op   Op
}

// suffixes holds every operator keyword, longest first, so that
// "GreaterThanEqual" wins over "GreaterThan" and "IsNotNull" over "Null".
var suffixes = func() []suffix {
	s := []suffix{
		{"IsNotNull", NotNull},
		{"NotNull", NotNull},
		{"IsNull", IsNull},
		{"Null", IsNull},
		{"NotLike", NotLike},
		{"Like", Like},
		{"StartingWith", StartsWith},
		{"StartsWith", StartsWith},
		{"EndingWith", EndsWith},
		{"EndsWith", EndsWith},
		{"NotContaining", NotContains},
		{"Containing", Contains},
		{"Contains", Contains},
		{"NotIn", NotIn},
		{"In", In},
		{"Between", Between},
		{"GreaterThanEqual", GTE},
		{"GreaterThan", GT},
		{"After", GT},
		{"LessThanEqual", LTE},
		{"LessThan", LT},
		{"Before", LT},
		{"IsNot", NEQ},
		{"Not", NEQ},
		{"IsTrue", IsTrue},
		{"True", IsTrue},
		{"IsFalse", IsFalse},
		{"False", IsFalse},
		{"Is", EQ},
		{"Equals", EQ},
		{"IsEqualTo", EQ},
		{"IsNotLike", NotLike},
		{"IsLike", Like},
		{"IsStartingWith", StartsWith},
		{"IsEndingWith", EndsWith},
		{"IsNotContaining", NotContains},
		{"IsContaining", Contains},
		{"IsNotIn", NotIn},
		{"IsIn", In},
		{"IsBetween", Between},
		{"IsGreaterThanEqual", GTE},
		{"IsGreaterThan", GT},
		{"IsAfter", GT},
		{"IsLessThanEqual", LTE},
		{"IsLessThan", LT},
		{"IsBefore", LT},
	}
	sort.SliceStable(s, func(i, j int) bool { return len(s[i].word) > len(s[j].word) })
	return s
}()

// splitOp splits an atomic segment ("AgeGreaterThan") into its property
// token ("Age") and operator. A keyword only matches when a non-empty
// property remains; no match means equality.
func splitOp(seg string) (string, Op) {
	for _, s := range suffixes {
		if len(seg) > len(s.word) && strings.HasSuffix(seg, s.word) {
			return seg[:len(seg)-len(s.word)], s.op
		}
	}
	return seg, EQ
}
