package sheets

import "sort"

// FSC product type codes accepted for raw paper stock.
var fscInputCodes = map[string]string{
	"P 2.1":   "Copying, printing, communication paper",
	"P 2.4.9": "Embossed paper and perforated paper",
	"P 3.1":   "Uncoated paperboard",
	"P 3.2":   "Coated paperboard",
	"P 3.3":   "Pressboard",
	"P 7.8":   "Adhesive labels",
}

// FSC certification claims accepted for raw paper stock.
var fscInputClaims = []string{
	"FSC Mix Credit",
	"FSC Recycled",
	"FSC Recycled Credit",
	"FSC Reciclat 100%",
	"FSC Mix Credit 90%",
	"FSC Reciclat 50%",
}

// FSC product type codes for the finished product.
var fscOutputCodes = map[string]string{
	"P 7.1": "Notebooks",
	"P 7.5": "Post and greeting cards",
	"P 7.6": "Envelopes",
	"P 7.7": "Gummed paper",
	"P 7.8": "Adhesive labels",
	"P 8.4": "Advertising materials",
	"P 8.5": "Business card",
	"P 8.6": "Calendars, diaries and organisers",
}

// ColourOptions lists the accepted front/back colour combinations.
var ColourOptions = []string{"4 + 4", "4 + 0", "4 + K", "K + K", "K + 0", "0 + 0"}

// LaminationOptions lists the accepted lamination finishes.
var LaminationOptions = []string{
	"Mat o fata",
	"Mat Fata/Verso",
	"Lucios o Fata",
	"Lucios fata/verso",
	"Soft-Touch o Fata",
	"Soft-Touch Fata/Verso",
}

// LaminateFormats lists the pouch sizes available for laminating.
var LaminateFormats = []string{
	"54 x 86mm",
	"60 x 90mm",
	"60 x 95mm",
	"65 x 95mm",
	"75 x 105mm",
	"80 x 111mm",
	"80 x 120mm",
	"A6 111 x 154mm",
	"A5 154 x 216mm",
	"A4 216 x 303mm",
	"A3 303 x 426mm",
}

// Equipment lists the presses an order can be scheduled on.
var Equipment = []string{"Accurio Press C6085", "Canon ImagePress 6010"}

// FSCInputCodes returns the raw-material FSC codes in a stable order.
func FSCInputCodes() []string {
	return sortedKeys(fscInputCodes)
}

// FSCInputDescription resolves a raw-material FSC code to its description.
func FSCInputDescription(code string) (string, bool) {
	desc, ok := fscInputCodes[code]
	return desc, ok
}

// FSCInputClaims returns the accepted raw-material certification claims.
func FSCInputClaims() []string {
	out := make([]string, len(fscInputClaims))
	copy(out, fscInputClaims)
	return out
}

// IsValidFSCInputClaim reports whether claim is an accepted certification.
func IsValidFSCInputClaim(claim string) bool {
	for _, c := range fscInputClaims {
		if c == claim {
			return true
		}
	}
	return false
}

// FSCOutputCodes returns the finished-product FSC codes in a stable order.
func FSCOutputCodes() []string {
	return sortedKeys(fscOutputCodes)
}

// FSCOutputDescription resolves a finished-product FSC code to its description.
func FSCOutputDescription(code string) (string, bool) {
	desc, ok := fscOutputCodes[code]
	return desc, ok
}

// IsValidColourOption reports whether opt is an accepted colour combination.
func IsValidColourOption(opt string) bool {
	for _, c := range ColourOptions {
		if c == opt {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
