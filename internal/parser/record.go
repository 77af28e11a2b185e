package parser

// Record holds the fields extracted from the text of an identity document.
// Every field is optional; an empty string means the field was not found.
type Record struct {
	IDNumber         string `json:"id_number" yaml:"id_number"`
	VirtualID        string `json:"virtual_id" yaml:"virtual_id"`
	NameNativeScript string `json:"name_native_script" yaml:"name_native_script"`
	Name             string `json:"name" yaml:"name"`
	GuardianName     string `json:"guardian_name" yaml:"guardian_name"`
	DateOfBirth      string `json:"date_of_birth" yaml:"date_of_birth"`
	Gender           string `json:"gender" yaml:"gender"`
	Address          string `json:"address" yaml:"address"`
	District         string `json:"district" yaml:"district"`
	State            string `json:"state" yaml:"state"`
	Pincode          string `json:"pincode" yaml:"pincode"`
	Phone            string `json:"phone" yaml:"phone"`
}

// Field is a single named attribute of a Record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields returns the record attributes in serialization order, keyed by
// their JSON names.
func (r Record) Fields() []Field {
	return []Field{
		{Name: "id_number", Value: r.IDNumber},
		{Name: "virtual_id", Value: r.VirtualID},
		{Name: "name_native_script", Value: r.NameNativeScript},
		{Name: "name", Value: r.Name},
		{Name: "guardian_name", Value: r.GuardianName},
		{Name: "date_of_birth", Value: r.DateOfBirth},
		{Name: "gender", Value: r.Gender},
		{Name: "address", Value: r.Address},
		{Name: "district", Value: r.District},
		{Name: "state", Value: r.State},
		{Name: "pincode", Value: r.Pincode},
		{Name: "phone", Value: r.Phone},
	}
}

// PopulatedCount returns how many fields hold a value.
func (r Record) PopulatedCount() int {
	n := 0
	for _, f := range r.Fields() {
		if f.Value != "" {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no field was extracted.
func (r Record) IsEmpty() bool {
	return r.PopulatedCount() == 0
}
