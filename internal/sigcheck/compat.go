package sigcheck

// Compatible reports whether an argument of class actual may be passed where
// class expected is declared. Only identical known classes match; Unknown is
// compatible with nothing, not even another Unknown.
func Compatible(expected, actual TypeClass) bool {
	return expected == actual && expected != Unknown
}
