package compensation

import (
	"strings"
)

type Airport struct {
	IATA    string  `json:"iata"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Directory looks airports up by code, name or city.
type Directory struct {
	byCode map[string]Airport
	list   []Airport
}

func NewDirectory(airports []Airport) *Directory {
	d := &Directory{byCode: make(map[string]Airport, len(airports)), list: airports}
	for _, a := range airports {
		d.byCode[a.IATA] = a
	}
	return d
}

// DefaultDirectory holds the airports claims are usually filed for.
func DefaultDirectory() *Directory {
	return NewDirectory(defaultAirports)
}

func (d *Directory) ByIATA(code string) (Airport, bool) {
	a, ok := d.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// Resolve accepts an IATA code or a spoken airport/city name such as
// "London Heathrow Airport" or "heathrow".
func (d *Directory) Resolve(token string) (Airport, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Airport{}, false
	}
	if len(token) == 3 {
		if a, ok := d.ByIATA(token); ok {
			return a, true
		}
	}
	t := strings.ToLower(token)
	t = strings.TrimSpace(strings.TrimSuffix(t, " airport"))
	if t == "" {
		return Airport{}, false
	}
	for _, a := range d.list {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, t) || strings.Contains(t, name) {
			return a, true
		}
	}
	for _, a := range d.list {
		if city := strings.ToLower(a.City); city != "" && (t == city || strings.Contains(t, city)) {
			return a, true
		}
	}
	return Airport{}, false
}

var defaultAirports = []Airport{
	{"LHR", "London Heathrow", "London", "GB", 51.470020, -0.454295},
	{"LGW", "London Gatwick", "London", "GB", 51.148056, -0.190278},
	{"STN", "London Stansted", "London", "GB", 51.885000, 0.235000},
	{"LTN", "London Luton", "London", "GB", 51.874722, -0.368333},
	{"MAN", "Manchester", "Manchester", "GB", 53.353744, -2.274950},
	{"BHX", "Birmingham", "Birmingham", "GB", 52.453856, -1.748028},
	{"EDI", "Edinburgh", "Edinburgh", "GB", 55.950145, -3.372288},
	{"GLA", "Glasgow", "Glasgow", "GB", 55.871944, -4.433056},
	{"BRS", "Bristol", "Bristol", "GB", 51.382669, -2.719089},
	{"DUB", "Dublin", "Dublin", "IE", 53.421333, -6.270075},
	{"CDG", "Paris Charles de Gaulle", "Paris", "FR", 49.009724, 2.547778},
	{"ORY", "Paris Orly", "Paris", "FR", 48.723333, 2.379444},
	{"NCE", "Nice Cote d'Azur", "Nice", "FR", 43.658411, 7.215872},
	{"LYS", "Lyon Saint-Exupery", "Lyon", "FR", 45.726387, 5.090833},
	{"AMS", "Amsterdam Schiphol", "Amsterdam", "NL", 52.310539, 4.768274},
	{"BRU", "Brussels", "Brussels", "BE", 50.901389, 4.484444},
	{"FRA", "Frankfurt", "Frankfurt", "DE", 50.033333, 8.570556},
	{"MUC", "Munich", "Munich", "DE", 48.353783, 11.786086},
	{"BER", "Berlin Brandenburg", "Berlin", "DE", 52.366667, 13.503333},
	{"DUS", "Dusseldorf", "Dusseldorf", "DE", 51.289453, 6.766775},
	{"HAM", "Hamburg", "Hamburg", "DE", 53.630389, 9.988228},
	{"ZRH", "Zurich", "Zurich", "CH", 47.464722, 8.549167},
	{"GVA", "Geneva", "Geneva", "CH", 46.238064, 6.108950},
	{"VIE", "Vienna", "Vienna", "AT", 48.110278, 16.569722},
	{"CPH", "Copenhagen Kastrup", "Copenhagen", "DK", 55.617917, 12.655972},
	{"ARN", "Stockholm Arlanda", "Stockholm", "SE", 59.651944, 17.918611},
	{"OSL", "Oslo Gardermoen", "Oslo", "NO", 60.193917, 11.100361},
	{"HEL", "Helsinki Vantaa", "Helsinki", "FI", 60.317222, 24.963333},
	{"KEF", "Keflavik", "Reykjavik", "IS", 63.985000, -22.605556},
	{"MAD", "Madrid Barajas", "Madrid", "ES", 40.471926, -3.562640},
	{"BCN", "Barcelona El Prat", "Barcelona", "ES", 41.297078, 2.078464},
	{"PMI", "Palma de Mallorca", "Palma", "ES", 39.551675, 2.738808},
	{"AGP", "Malaga", "Malaga", "ES", 36.674900, -4.499106},
	{"ALC", "Alicante", "Alicante", "ES", 38.282169, -0.558156},
	{"TFS", "Tenerife South", "Tenerife", "ES", 28.044475, -16.572489},
	{"LPA", "Gran Canaria", "Las Palmas", "ES", 27.931886, -15.386586},
	{"LIS", "Lisbon Humberto Delgado", "Lisbon", "PT", 38.781311, -9.135919},
	{"OPO", "Porto", "Porto", "PT", 41.248055, -8.681389},
	{"FAO", "Faro", "Faro", "PT", 37.014425, -7.965911},
	{"FCO", "Rome Fiumicino", "Rome", "IT", 41.800278, 12.238889},
	{"MXP", "Milan Malpensa", "Milan", "IT", 45.630606, 8.728111},
	{"VCE", "Venice Marco Polo", "Venice", "IT", 45.505278, 12.351944},
	{"NAP", "Naples", "Naples", "IT", 40.886033, 14.290781},
	{"ATH", "Athens", "Athens", "GR", 37.936358, 23.944467},
	{"IST", "Istanbul", "Istanbul", "TR", 41.275278, 28.751944},
	{"WAW", "Warsaw Chopin", "Warsaw", "PL", 52.165750, 20.967122},
	{"KRK", "Krakow", "Krakow", "PL", 50.077731, 19.784836},
	{"PRG", "Prague Vaclav Havel", "Prague", "CZ", 50.100833, 14.260000},
	{"BUD", "Budapest", "Budapest", "HU", 47.436933, 19.255592},
	{"OTP", "Bucharest Henri Coanda", "Bucharest", "RO", 44.571111, 26.085000},
	{"SOF", "Sofia", "Sofia", "BG", 42.695194, 23.406167},
	{"LCA", "Larnaca", "Larnaca", "CY", 34.875117, 33.624850},
	{"MLA", "Malta", "Valletta", "MT", 35.857497, 14.477500},
	{"JFK", "New York John F Kennedy", "New York", "US", 40.639751, -73.778925},
	{"EWR", "Newark Liberty", "Newark", "US", 40.692500, -74.168667},
	{"DXB", "Dubai", "Dubai", "AE", 25.252778, 55.364444},
	{"DOH", "Doha Hamad", "Doha", "QA", 25.273056, 51.608056},
}
