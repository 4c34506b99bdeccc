package browser

import "github.com/chromedp/chromedp"

// By selects the locator engine used to resolve a query.
type By int

const (
	ByCSS By = iota
	ByXPath
)

// Locator identifies one or more page elements. The relisting workflow works
// entirely in terms of locators; it never holds element references across
// page navigations.
type Locator struct {
	Query string
	By    By
}

func CSS(query string) Locator {
	return Locator{Query: query, By: ByCSS}
}

func XPath(query string) Locator {
	return Locator{Query: query, By: ByXPath}
}

func (l Locator) String() string {
	if l.By == ByXPath {
		return "xpath=" + l.Query
	}
	return "css=" + l.Query
}

func (l Locator) queryOption() chromedp.QueryOption {
	if l.By == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
