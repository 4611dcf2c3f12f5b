package envelope

// localizedCountry gets the high-denomination VND bucket.
const localizedCountry = "VN"

var (
	localizedAmounts = []int64{100000, 200000, 260000}
	defaultAmounts   = []int64{10, 20, 26}
)

// AmountsFor maps a country code to its candidate envelope amounts. The
// mapping is total: every code outside the localized one, including
// "Unknown", falls into the default bucket. Both buckets have the same
// length so the shuffle behaves uniformly.
func AmountsFor(country string) []int64 {
	if country == localizedCountry {
		return localizedAmounts
	}

	return defaultAmounts
}
