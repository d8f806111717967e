package extraction

// Field names returned by the built-in instructions.
const (
	FieldFirstName    = "first_name"
	FieldMiddleName   = "middle_name"
	FieldLastName     = "last_name"
	FieldDay          = "day"
	FieldMonth        = "month"
	FieldYear         = "year"
	FieldStreetNumber = "street_number"
	FieldUnitNumber   = "unit_number"
)

// Instruction describes one decomposition capability: how to ask the model
// and which fixed field set to expect back.
type Instruction struct {
	Name        string
	Prompt      string
	QueryPrefix string
	Fields      []string
}

// Query formats the user supplied text the way the instruction's examples do.
func (in Instruction) Query(text string) string {
	if in.QueryPrefix == "" {
		return text
	}
	return in.QueryPrefix + ": " + text
}

// NameInstruction splits a full name into first, middle and last name.
var NameInstruction = Instruction{
	Name:        "name",
	QueryPrefix: "Full name",
	Fields:      []string{FieldFirstName, FieldMiddleName, FieldLastName},
	Prompt: "Given a full name, return a JSON response with the fields 'first_name', 'middle_name', 'last_name'. " +
		"Example 1: Full name: Paul Craig => {first_name: Paul, middle_name: '', last_name: Craig}, " +
		"Example 2: Full name: Paul Martin Craig => {first_name: Paul, middle_name: Martin, last_name: Craig}, " +
		"Example 3: Full name: Craig => {first_name: Craig, middle_name: '', last_name: ''}, " +
		"Example 4: Full name: Paul Martin Laurier Craig => {first_name: Paul, middle_name: Martin Laurier, last_name: Craig}",
}

// DateInstruction splits a free form date into day, full month name and year.
var DateInstruction = Instruction{
	Name:        "date",
	QueryPrefix: "Date",
	Fields:      []string{FieldDay, FieldMonth, FieldYear},
	Prompt: "Given a date, return a JSON response with the fields 'day', 'month', 'year'. " +
		"Note that 'month' should always be the complete month name. " +
		"Example 1: Date: October 8, 1990 => {day: 8, month: October, year: 1990}, " +
		"Example 2: Date: 8 Oct 1990 => {day: 8, month: October, year: 1990}, " +
		"Example 3: Date: 1990-02-02 => {day: 2, month: February, year: 1990}, " +
		"Example 4: Date: 1990/2/1 => {day: 1, month: February, year: 1990}, " +
		"Example 5: Date: Dec 10 90 => {day: 10, month: December, year: 1990}, " +
		"Example 6: Date: Feb 29 => {day: 29, month: February, year: ''}, " +
		"Example 7: Date: 1990 => {day: '', month: '', year: 1990}, " +
		"Example 8: Date: Feb 31, 1990 => {day: '', month: February, year: 1990}",
}

// AddressInstruction pulls the street and unit numbers out of a street address.
var AddressInstruction = Instruction{
	Name:        "address",
	QueryPrefix: "Address",
	Fields:      []string{FieldStreetNumber, FieldUnitNumber},
	Prompt: "Given a street address with optional unit/apartment number, return a JSON response with the fields 'street_number', 'unit_number'. " +
		"Example 1: Address: 2-180 Lisgar St => {street_number: 180, unit_number: 2}, " +
		"Example 2: Address: 2166 Jenner Court => {street_number: 2166, unit_number: ''}, " +
		"Example 3: Address: 180 Lisgar St Apartment 12 => {street_number: 180, unit_number: 12}, " +
		"Example 4: Address: 1800 lisgar unit 3 => {street_number: 1800, unit_number: 3}, " +
		"Example 5: Address: 18 Lisgar Street Ottawa Ontario => {street_number: 18, unit_number: ''}, " +
		"Example 6: Address: Jenner Court => {street_number: '', unit_number: ''}, " +
		"Example 7: Address: 180 => {street_number: 180, unit_number: ''}",
}
