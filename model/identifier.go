package model

// Identifier names a problem entity the way a CNF variable name or a
// scheduling activity id would: opaque to the core reasoners, meaningful
// only to whoever is building the model. Mirrors the OLM resolver's
// Identifier (pkg/controller/registry/resolver/solver/dict.go) generalised
// from "package to install" to "any atom the model declares" (spec §4.5
// talks about atoms generically, not just Booleans).
type Identifier string

func (id Identifier) String() string { return string(id) }
