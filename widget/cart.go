package widget

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mbolis/cart-survey/log"
	"github.com/mbolis/cart-survey/model"
)

// Storefront theme conventions for cart markup. Only consulted when the
// host exposes no cart object, and never relied upon.
const (
	cartItemSelector  = ".cart-item, .cart__item"
	cartTitleSelector = ".cart-item__title, .cart__item-title"
	cartPriceSelector = ".cart-item__price, .cart__item-price"
)

// HostCart is the cart object a storefront exposes (window.Shopify.cart, /cart.js).
type HostCart struct {
	Items []map[string]any `json:"items"`
}

func ParseHostCart(r io.Reader) (*HostCart, error) {
	cart := &HostCart{}
	err := json.NewDecoder(r).Decode(cart)
	if err != nil {
		return nil, fmt.Errorf("decode host cart: %w", err)
	}
	return cart, nil
}

// ExtractCart returns the cart line items, preferring the host cart and
// falling back to scraping page. It never fails: problems are logged and
// yield an empty list.
func ExtractCart(host *HostCart, page io.Reader) (items []model.CartItem) {
	items = []model.CartItem{}
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("widget.cart: extraction aborted: %v", r)
			items = []model.CartItem{}
		}
	}()

	if host != nil && host.Items != nil {
		for _, it := range host.Items {
			items = append(items, model.CartItem{
				ID:       it["id"],
				Title:    it["title"],
				Quantity: it["quantity"],
				Price:    it["price"],
			})
		}
		return
	}

	if page == nil {
		return
	}
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		log.Warnf("widget.cart: parse page: %s", err)
		return
	}

	doc.Find(cartItemSelector).Each(func(_ int, el *goquery.Selection) {
		title := el.Find(cartTitleSelector).First()
		if title.Length() == 0 {
			return
		}

		price := "N/A"
		if p := el.Find(cartPriceSelector).First(); p.Length() > 0 {
			price = strings.TrimSpace(p.Text())
		}

		items = append(items, model.CartItem{
			Title: strings.TrimSpace(title.Text()),
			Price: price,
		})
	})
	return
}
