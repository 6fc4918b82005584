package css

// Stylesheet is the inspection result for one parsed stylesheet: enough
// structure to verify that expected classes exist and to find the external
// resources the sheet pulls in.
type Stylesheet struct {
	// Classes holds every class name any selector mentions.
	Classes map[string]bool
	// URLs holds the url(...) references found in property values.
	URLs []string
	// Imports holds the targets of @import rules.
	Imports []string
}

// HasClass determines whether any selector of the sheet mentions a class.
func (s *Stylesheet) HasClass(name string) bool {
	return s.Classes[name]
}
