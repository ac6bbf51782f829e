package cache

import "strconv"

// Key builders for market-data lookups. Symbols are used as stored,
// no normalization.

func QuoteKey(symbol string) string { return "quote:" + symbol }

func HistoryKey(symbol string, days int) string {
	return "history:" + symbol + ":" + strconv.Itoa(days)
}

func SearchKey(query string) string { return "search:" + query }

const PopularKey = "popular"
