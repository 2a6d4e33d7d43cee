package prober

import "regexp"

// platformFingerprint identifies a store-building platform from a substring
// of the page's HTML or script sources. A fingerprint hit is conclusive on
// its own.
type platformFingerprint struct {
	Marker   string
	Platform string
}

// Ordered roughly by market share so the common cases short-circuit first.
var platformFingerprints = []platformFingerprint{
	{Marker: "cdn.shopify.com", Platform: "Shopify"},
	{Marker: "shopify.theme", Platform: "Shopify"},
	{Marker: "woocommerce", Platform: "WooCommerce"},
	{Marker: "wp-content/plugins/woocommerce", Platform: "WooCommerce"},
	{Marker: "mage/cookies", Platform: "Magento"},
	{Marker: "magento_", Platform: "Magento"},
	{Marker: "cdn11.bigcommerce.com", Platform: "BigCommerce"},
	{Marker: "bigcommerce.com/s-", Platform: "BigCommerce"},
	{Marker: "cdn.salla.sa", Platform: "Salla"},
	{Marker: "salla.network", Platform: "Salla"},
	{Marker: "zid.store", Platform: "Zid"},
	{Marker: "prestashop", Platform: "PrestaShop"},
	{Marker: "opencart", Platform: "OpenCart"},
	{Marker: "static1.squarespace.com/commerce", Platform: "Squarespace"},
	{Marker: "wixstores", Platform: "Wix"},
}

// paymentMarkers indicate an embedded checkout or payment SDK. A page does
// not load Stripe or Tamara by accident, so a hit is conclusive on its own,
// like a platform fingerprint but without a platform name.
var paymentMarkers = []string{
	"js.stripe.com",
	"paypal.com/sdk",
	"checkout.paypal.com",
	"tap.company",
	"moyasar",
	"hyperpay",
	"checkout.tabby.ai",
	"tamara.co",
	"payfort",
	"telr.com",
}

// schemaMarkers indicate structured product data. Worth SchemaPoints in
// total regardless of how many variants appear.
var schemaMarkers = []string{
	"schema.org/product",
	`"@type":"product"`,
	`"@type": "product"`,
	"itemtype=\"https://schema.org/offer",
	"property=\"product:price",
}

// lexicalMarkers are weak commerce vocabulary hits, one point each.
var lexicalMarkers = []string{
	"add-to-cart",
	"add to cart",
	"addtocart",
	"add-to-bag",
	"checkout",
	"product-price",
	"shopping-cart",
	"wishlist",
	"in stock",
	"out of stock",
	"og:type\" content=\"product",
	"free shipping",
}

// currencyRegexes match explicit prices. Each matching pattern is one point.
var currencyRegexes = []*regexp.Regexp{
	regexp.MustCompile(`[$€£]\s?\d[\d,.]*`),
	regexp.MustCompile(`(?i)\b(?:SAR|AED|EGP|KWD|QAR|BHD|OMR|JOD|USD|EUR|GBP)\s?\d[\d,.]*`),
	regexp.MustCompile(`\d[\d,.]*\s?(?:ر\.س|د\.إ|ج\.م)`),
}
