package keyprotect

// algorithmInfo describes one supported private-key algorithm: its
// name, the single-character parameter names in on-wire order, and the
// inclusive index range of parameters the protect/unprotect machinery
// treats as secret. Mirrors protect_info[] in GnuPG's agent/protect.c.
type algorithmInfo struct {
	Name      string
	ParamList string
	ProtFrom  int
	ProtTo    int
}

// algorithmTable is the open set of algorithm descriptors. Only rsa is
// populated; a second algorithm can be added as one more literal entry
// without touching the protect/unprotect logic.
var algorithmTable = []algorithmInfo{
	{Name: "rsa", ParamList: "nedpqu", ProtFrom: 2, ProtTo: 5},
}

// lookupAlgorithm returns the descriptor for name, or ok=false if the
// algorithm is not in algorithmTable.
func lookupAlgorithm(name string) (algorithmInfo, bool) {
	for _, a := range algorithmTable {
		if a.Name == name {
			return a, true
		}
	}
	return algorithmInfo{}, false
}
