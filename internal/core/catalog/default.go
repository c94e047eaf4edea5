package catalog

// Default city and search qualifier.
const (
	DefaultCity  = "Tel Aviv"
	DefaultTopic = "concerts shows events"
)

// DefaultGenres is the genre vocabulary offered at onboarding.
var DefaultGenres = []string{
	"Rock",
	"Pop",
	"Jazz",
	"Electronic",
	"Hip Hop",
	"Classical",
	"Indie",
	"World",
	"Metal",
	"Theater",
	"Stand-up",
}

// DefaultVenues is the venue table offered at onboarding.
var DefaultVenues = []Venue{
	{ID: "barby", Name: "Barby", Domains: []string{"barby.co.il"}},
	{ID: "zappa", Name: "Zappa Tel Aviv", Domains: []string{"zappa-club.co.il"}},
	{ID: "levontin7", Name: "Levontin 7", Domains: []string{"levontin7.com"}},
	{ID: "reading3", Name: "Reading 3", Domains: []string{"reading3.co.il"}},
	{ID: "cameri", Name: "Cameri Theatre", Domains: []string{"cameri.co.il"}},
	{ID: "habima", Name: "Habima National Theatre", Domains: []string{"habima.co.il"}},
	{ID: "opera", Name: "Israeli Opera", Domains: []string{"israel-opera.co.il"}},
	{ID: "menora", Name: "Menora Mivtachim Arena", Domains: []string{"menoramivtachimarena.co.il"}},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(DefaultCity, DefaultTopic, DefaultGenres, DefaultVenues)
}
