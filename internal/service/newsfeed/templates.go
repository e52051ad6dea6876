package newsfeed

const (
	SyntheticSource = "Market Signals"
	syntheticLink   = "#"
)

type template struct {
	title     string
	ticker    string
	sentiment string
}

var templates = []template{
	{"Apple announces breakthrough in AI chip development", "AAPL", "bullish"},
	{"Tesla Cybertruck deliveries exceed expectations", "TSLA", "bullish"},
	{"NVIDIA reports record data center revenue", "NVDA", "bullish"},
	{"Microsoft Azure growth accelerates to new highs", "MSFT", "bullish"},
	{"Amazon Web Services expands into new markets", "AMZN", "bullish"},
	{"Meta's Reality Labs shows improved financials", "META", "bullish"},
	{"Google Cloud wins major enterprise contracts", "GOOGL", "bullish"},
	{"AMD gains market share in server processors", "AMD", "bullish"},
	{"Bitcoin surges on institutional adoption news", "BTC-USD", "bullish"},
	{"S&P 500 futures point to higher open", "SPY", "bullish"},
	{"Tech sector faces regulatory headwinds", "QQQ", "bearish"},
	{"Tesla factory production delays reported", "TSLA", "bearish"},
	{"Apple iPhone sales slow in China market", "AAPL", "bearish"},
	{"NVIDIA faces supply chain constraints", "NVDA", "bearish"},
	{"Market volatility spikes on economic data", "VIX", "bearish"},
	{"Intel announces restructuring plan", "INTC", "bearish"},
	{"Crypto market sees profit-taking pressure", "BTC-USD", "bearish"},
	{"Oil prices surge on supply concerns", "USO", "bullish"},
	{"Gold rallies as safe-haven demand increases", "GLD", "bullish"},
	{"Netflix subscriber growth beats estimates", "NFLX", "bullish"},
}
