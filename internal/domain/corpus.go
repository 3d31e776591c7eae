package domain

// Category groups topic documents for menu browsing.
type Category string

const (
	CategoryTourism  Category = "tourism"
	CategoryWildlife Category = "wildlife"
	CategoryCulture  Category = "culture"
	CategoryOther    Category = "other"
)

// Categories lists all valid topic categories in menu order.
func Categories() []Category {
	return []Category{CategoryTourism, CategoryWildlife, CategoryCulture, CategoryOther}
}

// TopicDocument is one pre-authored answer in the knowledge corpus.
// Immutable after load.
type TopicDocument struct {
	ID       string   `yaml:"id"`
	Category Category `yaml:"category"`
	Title    string   `yaml:"title"`
	Keywords []string `yaml:"keywords"`
	Body     string   `yaml:"body"`
}

// PropertyListing is one real-estate entry in the corpus. Immutable after load.
type PropertyListing struct {
	ID          string   `yaml:"id"`
	Location    string   `yaml:"location"`
	Price       string   `yaml:"price"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}
