package ast

type Manifest struct {
	Properties []*Property `parser:"@@*"`
	Mods       []*Mod      `parser:"@@*"`
}

type Mod struct {
	Name       string       `parser:"'mod' @Ident"`
	Attributes []*Attribute `parser:"[ '(' @@ ( ';' @@ )* ')' ]"`
}

type Attribute struct {
	Key   string `parser:"@('src' | 'opts') ':'"`
	Value Value  `parser:"@@"`
}

type Property struct {
	Key   string `parser:"@Ident '='"`
	Value Value  `parser:"@@"`
}

type Value interface{ value() }

type String struct {
	String string `parser:"@String"`
}

func (String) value() {}

type Number struct {
	Number float64 `parser:"@Float | @Int"`
}

func (Number) value() {}

type List struct {
	List []string `parser:"(@Ident(',' @Ident)*)"`
}

func (List) value() {}
