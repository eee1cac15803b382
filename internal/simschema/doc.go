// Package simschema declares the settings of an interferometer simulation.
//
// The schema lives in an embedded TOML document of [[setting]] tables. Each
// table maps onto settings.Definition, and an optional depends table nests
// rule and group entries into the AND/OR dependency tree:
//
//	[[setting]]
//	key = "observation/frequency_inc_hz"
//	type = "Double"
//	default = "0"
//	depends = { rule = [{ key = "observation/num_channels", value = "1", logic = ">" }] }
package simschema
