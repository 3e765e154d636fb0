package models

import "strings"

// Properties is the set of capabilities a characteristic declares.
type Properties uint8

// Do not re-order the bit flags below;
// they match the BLE characteristic properties field.
const (
	PropRead                 Properties = 1 << (iota + 1) // the characteristic may be read
	PropWriteWithoutResponse                              // the characteristic may be written to, with no reply
	PropWrite                                             // the characteristic may be written to, with a reply
	PropNotify                                            // the characteristic supports notifications
	PropIndicate                                          // the characteristic supports indications
)

var propertyNames = []struct {
	p    Properties
	name string
}{
	{PropRead, "Read"},
	{PropWriteWithoutResponse, "WriteWithoutResponse"},
	{PropWrite, "Write"},
	{PropNotify, "Notify"},
	{PropIndicate, "Indicate"},
}

// Has reports whether every flag of q is set in p.
func (p Properties) Has(q Properties) bool { return q != 0 && p&q == q }

// Readable reports whether p declares Read.
func (p Properties) Readable() bool { return p.Has(PropRead) }

// Writable reports whether p declares Write or WriteWithoutResponse.
func (p Properties) Writable() bool { return p&(PropWrite|PropWriteWithoutResponse) != 0 }

// Notifiable reports whether p declares Notify or Indicate.
func (p Properties) Notifiable() bool { return p&(PropNotify|PropIndicate) != 0 }

// Empty reports whether no known flag is set.
func (p Properties) Empty() bool {
	for _, n := range propertyNames {
		if p&n.p != 0 {
			return false
		}
	}
	return true
}

func (p Properties) String() string {
	var names []string
	for _, n := range propertyNames {
		if p&n.p != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}
