package app

import (
	"github.com/mbolis/cart-survey/config"
	"github.com/mbolis/cart-survey/model"
	"github.com/mbolis/cart-survey/shopify"
	"github.com/mbolis/cart-survey/store"
)

type App struct {
	Responses  store.Responses
	Survey     model.Survey
	ScriptTags *shopify.Client
	config.Config
}
