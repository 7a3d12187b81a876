package customer

// Record is a customer card as returned by the CRM lookup.
type Record struct {
	CardNumber string
	Name       string
	Balance    string // as sent by the CRM, e.g. "100.50"
	AvgBill    *float64 // nil when the CRM has no purchase history yet
}

// Draft accumulates the fields collected by one registration dialog.
type Draft struct {
	Phone     Phone
	FirstName string
	LastName  string
	BirthDate BirthDate
	PromoCode string
}

// RegistrationAck is the CRM answer to a successful registration.
type RegistrationAck struct {
	Status     string
	Message    string
	AndroidURL string
	IOSURL     string
}
