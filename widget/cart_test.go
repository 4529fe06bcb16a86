package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/cart-survey/model"
)

func TestExtractCartFromHost(t *testing.T) {
	host, err := ParseHostCart(strings.NewReader(`{
		"token": "abc",
		"items": [
			{"id": 101, "title": "Mug", "quantity": 2, "price": 1250, "vendor": "Acme"},
			{"id": 102, "title": "Tea", "quantity": 1}
		]
	}`))
	require.NoError(t, err)

	page := strings.NewReader(`<div class="cart-item"><span class="cart-item__title">Ignored</span></div>`)
	items := ExtractCart(host, page)

	assert.Equal(t, []model.CartItem{
		{ID: float64(101), Title: "Mug", Quantity: float64(2), Price: float64(1250)},
		{ID: float64(102), Title: "Tea", Quantity: float64(1)},
	}, items)
}

func TestExtractCartEmptyHostCart(t *testing.T) {
	page := strings.NewReader(`<div class="cart-item"><span class="cart-item__title">Ignored</span></div>`)
	items := ExtractCart(&HostCart{Items: []map[string]any{}}, page)
	assert.Equal(t, []model.CartItem{}, items)
}

func TestExtractCartFromPage(t *testing.T) {
	page := strings.NewReader(`
		<html><body>
			<ul>
				<li class="cart-item">
					<a class="cart-item__title"> Blue Mug </a>
					<span class="cart-item__price">$12.50</span>
				</li>
				<li class="cart__item">
					<div class="cart__item-title">Green Tea</div>
				</li>
				<li class="cart-item">
					<span class="cart-item__price">$3.00</span>
				</li>
			</ul>
		</body></html>`)

	items := ExtractCart(nil, page)
	assert.Equal(t, []model.CartItem{
		{Title: "Blue Mug", Price: "$12.50"},
		{Title: "Green Tea", Price: "N/A"},
	}, items)
}

func TestExtractCartNothingFound(t *testing.T) {
	items := ExtractCart(nil, strings.NewReader(`<html><body><p>Your cart is empty</p></body></html>`))
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items = ExtractCart(nil, nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractCartUnreadablePage(t *testing.T) {
	items := ExtractCart(nil, failingReader{})
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, assert.AnError }
