package categorize

// SampleCorpus returns the labelled transactions the classifier bootstraps
// from when no training corpus has been persisted yet.
func SampleCorpus() []Sample {
	return []Sample{
		{Merchant: "McDonald's", Description: "Fast food lunch", Amount: -12.50, Category: "food"},
		{Merchant: "Starbucks", Description: "Coffee and pastry", Amount: -8.75, Category: "food"},
		{Merchant: "Whole Foods", Description: "Grocery shopping", Amount: -85.30, Category: "food"},
		{Merchant: "Pizza Hut", Description: "Pizza delivery", Amount: -24.99, Category: "food"},

		{Merchant: "Shell", Description: "Gas station", Amount: -45.20, Category: "transportation"},
		{Merchant: "Uber", Description: "Ride sharing", Amount: -15.80, Category: "transportation"},
		{Merchant: "Metro", Description: "Public transport", Amount: -3.50, Category: "transportation"},

		{Merchant: "Amazon", Description: "Online shopping", Amount: -67.45, Category: "shopping"},
		{Merchant: "Target", Description: "Department store", Amount: -125.80, Category: "shopping"},
		{Merchant: "Best Buy", Description: "Electronics", Amount: -299.99, Category: "shopping"},

		{Merchant: "Netflix", Description: "Streaming service", Amount: -15.99, Category: "entertainment"},
		{Merchant: "AMC Theaters", Description: "Movie tickets", Amount: -24.00, Category: "entertainment"},
		{Merchant: "Spotify", Description: "Music streaming", Amount: -9.99, Category: "entertainment"},

		{Merchant: "Electric Company", Description: "Electric bill", Amount: -125.50, Category: "utilities"},
		{Merchant: "Verizon", Description: "Phone bill", Amount: -85.00, Category: "utilities"},
		{Merchant: "Comcast", Description: "Internet bill", Amount: -65.00, Category: "utilities"},

		{Merchant: "CVS Pharmacy", Description: "Prescription", Amount: -45.75, Category: "healthcare"},
		{Merchant: "Dr. Smith", Description: "Medical consultation", Amount: -150.00, Category: "healthcare"},

		{Merchant: "University Bookstore", Description: "Textbooks", Amount: -200.00, Category: "education"},
		{Merchant: "Coursera", Description: "Online course", Amount: -49.99, Category: "education"},

		{Merchant: "Marriott", Description: "Hotel booking", Amount: -250.00, Category: "travel"},
		{Merchant: "Delta Airlines", Description: "Flight ticket", Amount: -450.00, Category: "travel"},

		{Merchant: "State Farm", Description: "Car insurance", Amount: -120.00, Category: "insurance"},
		{Merchant: "Blue Cross", Description: "Health insurance", Amount: -300.00, Category: "insurance"},
	}
}
