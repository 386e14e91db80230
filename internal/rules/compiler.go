package rules

import (
	"strconv"

	"senars/internal/term"
)

// The discrimination tree indexes binary pattern rules by four ordered
// discriminators: primary operator, secondary operator, primary arity,
// secondary arity. A premise pattern that is a variable contributes the
// wildcard at its levels. Single-premise rules live in a side list.

const wildcard = "*"

// atomDiscriminator stands in for the operator of a leaf pattern.
const atomDiscriminator = "atom"

type treeNode struct {
	children map[string]*treeNode
	wild     *treeNode
	rules    []*PatternRule // populated at leaf depth only
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[string]*treeNode)}
}

// Tree is the compiled rule index.
type Tree struct {
	root    *treeNode
	singles []*PatternRule
	size    int
}

// Compile builds the decision tree for a rule set. Compilation is
// one-shot and deterministic: O(rules x discriminators).
func Compile(ruleSet []*PatternRule) *Tree {
	t := &Tree{root: newTreeNode()}
	for _, r := range ruleSet {
		if r.SinglePremise() {
			t.singles = append(t.singles, r)
			t.size++
			continue
		}
		keys := patternKeys(r)
		node := t.root
		for _, key := range keys {
			if key == wildcard {
				if node.wild == nil {
					node.wild = newTreeNode()
				}
				node = node.wild
				continue
			}
			next, ok := node.children[key]
			if !ok {
				next = newTreeNode()
				node.children[key] = next
			}
			node = next
		}
		node.rules = append(node.rules, r)
		t.size++
	}
	return t
}

// Size returns the number of compiled rules.
func (t *Tree) Size() int { return t.size }

// Singles returns the single-premise rules.
func (t *Tree) Singles() []*PatternRule { return t.singles }

// Lookup walks the tree with the instance discriminators of a premise
// pair, traversing exact and wildcard branches, and returns every rule
// at the reachable leaves.
func (t *Tree) Lookup(primary, secondary *term.Term) []*PatternRule {
	keys := instanceKeys(primary, secondary)
	var out []*PatternRule
	frontier := []*treeNode{t.root}
	for _, key := range keys {
		next := frontier[:0:0]
		for _, node := range frontier {
			if child, ok := node.children[key]; ok {
				next = append(next, child)
			}
			if node.wild != nil {
				next = append(next, node.wild)
			}
		}
		if len(next) == 0 {
			return nil
		}
		frontier = next
	}
	for _, node := range frontier {
		out = append(out, node.rules...)
	}
	return out
}

// patternKeys derives the four discriminator values of a binary rule's
// premise patterns.
func patternKeys(r *PatternRule) [4]string {
	p, s := r.Premises[0], r.Premises[1]
	return [4]string{
		patternOperator(p),
		patternOperator(s),
		patternArity(p),
		patternArity(s),
	}
}

func patternOperator(t *term.Term) string {
	if t.IsVariable() {
		return wildcard
	}
	if t.IsCompound() {
		return string(t.Op())
	}
	return atomDiscriminator
}

func patternArity(t *term.Term) string {
	if t.IsVariable() {
		return wildcard
	}
	return strconv.Itoa(t.Arity())
}

// instanceKeys derives the discriminator values of an instance pair.
func instanceKeys(primary, secondary *term.Term) [4]string {
	return [4]string{
		instanceOperator(primary),
		instanceOperator(secondary),
		strconv.Itoa(primary.Arity()),
		strconv.Itoa(secondary.Arity()),
	}
}

func instanceOperator(t *term.Term) string {
	if t.IsCompound() {
		return string(t.Op())
	}
	return atomDiscriminator
}
