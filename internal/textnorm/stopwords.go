package textnorm

// Stop-word and filler tables. These are tuning data for extraction, not
// logic; keep additions lowercase.

var spanishStopWords = []string{
	"de", "la", "que", "el", "en", "y", "a", "los", "del", "se", "las",
	"por", "un", "para", "con", "no", "una", "su", "al", "lo", "como",
	"mas", "más", "pero", "sus", "le", "ya", "o", "este", "si", "sí",
	"porque", "esta", "entre", "cuando", "muy", "sin", "sobre", "también",
	"tambien", "me", "hasta", "hay", "donde", "quien", "desde", "todo",
	"nos", "durante", "todos", "uno", "les", "ni", "contra", "otros",
	"ese", "eso", "ante", "ellos", "esto", "antes", "algunos", "que",
	"unos", "yo", "otro", "otras", "otra", "tanto", "esa", "estos",
	"mucho", "quienes", "nada", "muchos", "cual", "poco", "ella", "estar",
	"estas", "algunas", "algo", "nosotros", "mi", "mis", "tu", "te", "ti",
	"tus", "ellas", "fue", "ser", "es", "son", "era", "hoy", "ayer",
	"mañana", "manana", "aqui", "aquí", "ahi", "ahí", "alla", "allá",
}

var englishStopWords = []string{
	"the", "of", "and", "a", "to", "in", "is", "you", "that", "it", "he",
	"was", "for", "on", "are", "as", "with", "his", "they", "i", "at",
	"be", "this", "have", "from", "or", "one", "had", "by", "but", "not",
	"what", "all", "were", "we", "when", "your", "can", "said", "there",
	"an", "each", "which", "she", "do", "how", "their", "if", "will",
	"up", "other", "about", "out", "many", "then", "them", "these", "so",
	"some", "her", "would", "like", "him", "into", "time", "has", "two",
	"more", "go", "see", "no", "way", "could", "my", "than", "first",
	"been", "who", "its", "now", "long", "down", "day", "did", "get",
	"come", "made", "may", "just", "over", "also", "after", "our", "any",
	"new", "very", "here", "today", "yesterday", "tomorrow",
}

// fillerWords are currency and expense-phrasing noise that carries no
// category signal.
var fillerWords = []string{
	"pesos", "peso", "mxn", "dolares", "dólares", "usd", "spent", "paid",
	"pay", "pague", "pagué", "pago", "gaste", "gasté", "gasto", "compre",
	"compré", "compra", "bought", "buy", "cost", "costo", "costó",
	"total", "money", "dinero", "efectivo", "cash", "tarjeta", "card",
}

var stopWords map[string]struct{}

func init() {
	stopWords = make(map[string]struct{}, len(spanishStopWords)+len(englishStopWords)+len(fillerWords))
	for _, lists := range [][]string{spanishStopWords, englishStopWords, fillerWords} {
		for _, w := range lists {
			stopWords[w] = struct{}{}
		}
	}
}

// IsStopWord reports whether a lowercased token is a stop-word or filler.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
