package dom

import "fmt"

// Selector matches elements
type Selector interface {
	Match(el *Element) bool
	String() string
}

type attrSelector struct {
	key   string
	value string
}

func (s attrSelector) Match(el *Element) bool {
	v, ok := el.lookupAttr(s.key)
	return ok && v == s.value
}

func (s attrSelector) String() string {
	if s.key == "id" {
		return "#" + s.value
	}
	return fmt.Sprintf("[%s=%q]", s.key, s.value)
}

type presenceSelector string

func (s presenceSelector) Match(el *Element) bool {
	return el.HasAttr(string(s))
}

func (s presenceSelector) String() string {
	return "[" + string(s) + "]"
}

type tagSelector string

func (s tagSelector) Match(el *Element) bool {
	return el.Tag() == string(s)
}

func (s tagSelector) String() string {
	return string(s)
}

type classSelector string

func (s classSelector) Match(el *Element) bool {
	return el.HasClass(string(s))
}

func (s classSelector) String() string {
	return "." + string(s)
}

// ByID matches the element with the given id
func ByID(id string) Selector {
	return attrSelector{key: "id", value: id}
}

// ByTestID matches elements carrying data-testid=id
func ByTestID(id string) Selector {
	return attrSelector{key: "data-testid", value: id}
}

// ByAttr matches elements whose attribute key equals value
func ByAttr(key, value string) Selector {
	return attrSelector{key: key, value: value}
}

// ByTag matches elements by tag name
func ByTag(tag string) Selector {
	return tagSelector(tag)
}

// ByClass matches elements having class in their class list
func ByClass(class string) Selector {
	return classSelector(class)
}

// HasAttr matches elements carrying the attribute, whatever its value
func HasAttr(key string) Selector {
	return presenceSelector(key)
}
