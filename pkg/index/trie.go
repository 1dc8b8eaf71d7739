package index

import (
	"maps"
	"slices"
)

type Trie struct {
	Root *Node
}

type Node struct {
	Children map[rune]*Node
	IsLeaf   bool
}

func NewTrie() *Trie {
	return &Trie{
		Root: &Node{
			Children: make(map[rune]*Node),
		},
	}
}

func (t *Trie) Insert(word Token) {
	node := t.Root
	for _, r := range word {
		if _, ok := node.Children[r]; !ok {
			node.Children[r] = &Node{
				Children: make(map[rune]*Node),
			}
		}
		node = node.Children[r]
	}
	node.IsLeaf = true
}

func (t *Trie) Search(word Token) bool {
	node := t.Root
	for _, r := range word {
		if _, ok := node.Children[r]; !ok {
			return false
		}
		node = node.Children[r]
	}
	return node.IsLeaf
}

// FindMatches returns every inserted word starting with prefix, sorted.
func (t *Trie) FindMatches(prefix Token) []Token {
	node := t.Root
	for _, r := range prefix {
		if _, ok := node.Children[r]; !ok {
			return nil
		}
		node = node.Children[r]
	}
	matches := t.findMatches(node, string(prefix))
	slices.Sort(matches)
	return matches
}

func (t *Trie) findMatches(node *Node, prefix string) []Token {
	var matches []Token
	if node.IsLeaf {
		matches = append(matches, Token(prefix))
	}
	for _, r := range slices.Sorted(maps.Keys(node.Children)) {
		matches = append(matches, t.findMatches(node.Children[r], prefix+string(r))...)
	}
	return matches
}
