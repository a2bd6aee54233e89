package model

// defaultProperties is the bundled collection used when neither the remote
// resource nor the local cache can provide one.
var defaultProperties = []Property{
	{
		ID: 1, Location: "Bristol BS7", Address: "14 Amis Walk, Bristol BS7",
		Beds: 4, Baths: 2, Rent: 2500, Deposit: 2884,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "We are delighted to offer this four bedroom fully furnished property in Horfield, Bristol. " +
			"Close to The University of the West of England, Bristol - UWE as well as major road links and plenty of local amenities this is a must see for any one! " +
			"The property is over three levels and consists of four bedrooms one with En-suite, bathroom, W.C. and a nice sized open plan living room/kitchen. " +
			"The property also comes with a parking bay and garage area if needed.",
		Images: "BS7",
	},
	{
		ID: 2, Location: "London E7", Address: "London E7",
		Beds: 7, Baths: 3, Rent: 6249, Deposit: 7500,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Stunning 7 bedroom property in East London, perfect for HMO investment. Close to transport links and local amenities.",
		Images:      "E7(1)",
	},
	{
		ID: 3, Location: "London E1", Address: "London E1",
		Beds: 5, Baths: 2, Rent: 6000, Deposit: 7000,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Beautiful 5 bedroom property in the heart of East London. Ideal for professionals or HMO.",
		Images:      "E1",
	},
	{
		ID: 4, Location: "Birmingham, B18", Address: "Birmingham B18",
		Beds: 5, Baths: 3, Rent: 1800, Deposit: 2100,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Spacious 5 bedroom property in Birmingham. Great rental yield potential.",
		Images:      "B18",
	},
	{
		ID: 5, Location: "High Wycombe HP12", Address: "High Wycombe HP12",
		Beds: 4, Baths: 1, Rent: 2400, Deposit: 2800,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "4 bedroom property in High Wycombe with excellent transport links to London.",
		Images:      "HP12",
	},
	{
		ID: 6, Location: "Leicester LE2", Address: "Leicester LE2",
		Beds: 5, Baths: 2, Rent: 1400, Deposit: 1600,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Affordable 5 bedroom property in Leicester. Perfect for student lets.",
		Images:      "LE2",
	},
	{
		ID: 7, Location: "Birmingham B14", Address: "Birmingham B14",
		Beds: 3, Baths: 1, Rent: 1500, Deposit: 1750,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Cozy 3 bedroom property in Birmingham B14 area.",
		Images:      "B14)",
	},
	{
		ID: 8, Location: "Berkshire SL2", Address: "Berkshire SL2",
		Beds: 6, Baths: 3, Rent: 6500, Deposit: 7500,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Luxurious 6 bedroom property in Berkshire. High-end finish throughout.",
		Images:      "SL2",
	},
	{
		ID: 9, Location: "Berkshire SL1", Address: "Berkshire SL1",
		Beds: 6, Baths: 6, Rent: 7000, Deposit: 8000,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Premium 6 bedroom, 6 bathroom property in Berkshire SL1.",
		Images:      "SL1",
	},
	{
		ID: 10, Location: "Luton LU2", Address: "Luton LU2",
		Beds: 5, Baths: 4, Rent: 3100, Deposit: 3600,
		Contract: DefaultContract, Availability: DefaultAvailability,
		Description: "Modern 5 bedroom property in Luton with 4 bathrooms. Great for HMO.",
		Images:      "LU2",
	},
}

// Defaults returns a fresh copy of the bundled collection.
func Defaults() []Property {
	out := make([]Property, len(defaultProperties))
	copy(out, defaultProperties)
	return out
}
