package plugin

import "fmt"

// OptionType describes the value type of a plugin option.
type OptionType string

const (
	OptionText  OptionType = "text"
	OptionInt   OptionType = "int"
	OptionFloat OptionType = "float"
	OptionBool  OptionType = "bool"
)

// Option describes one configuration option of a plugin: its name, typed
// default value, a label and description for operators, and whether the
// value is secret (masked in logs and listings).
type Option struct {
	Name        string
	Type        OptionType
	Default     any
	Label       string
	Description string
	Secret      bool
}

// DisplayValue formats a value of this option for listings, masking
// secrets.
func (o Option) DisplayValue(value any) string {
	if value == nil {
		value = o.Default
	}
	if o.Secret {
		s := fmt.Sprintf("%v", value)
		if s == "" {
			return ""
		}
		return "***"
	}
	return fmt.Sprintf("%v", value)
}
