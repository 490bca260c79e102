package form

// Data is a single form entry: either a plain field or an uploaded file.
type Data struct {
	Name string
	// Filename is set for file entries only.
	Filename string
	// Type is the content type of the entry, if announced.
	Type    string
	Charset string
	Value   string
}

type Form []Data

// Name returns the first entry under the name.
func (f Form) Name(name string) (Data, bool) {
	for _, entry := range f {
		if entry.Name == name {
			return entry, true
		}
	}

	return Data{}, false
}

// File returns the first file entry under the filename.
func (f Form) File(filename string) (Data, bool) {
	for _, entry := range f {
		if entry.Filename == filename {
			return entry, true
		}
	}

	return Data{}, false
}
