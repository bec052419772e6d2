package testutil

import (
	"fmt"

	"github.com/goccy/go-json"
)

// StrayHeadcoversShopID is the shop used by the fixtures.
const StrayHeadcoversShopID = "StrayHeadcovers"

// FixtureListing is a listing as returned by Etsy, still HTML-encoded.
type FixtureListing struct {
	ListingID   int64  `json:"listing_id"`
	State       string `json:"state"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type fixturePagination struct {
	EffectiveLimit  int  `json:"effective_limit"`
	EffectiveOffset int  `json:"effective_offset"`
	NextOffset      *int `json:"next_offset"`
	EffectivePage   int  `json:"effective_page"`
	NextPage        *int `json:"next_page"`
}

type fixtureListingsBody struct {
	Count      int               `json:"count"`
	Results    []FixtureListing  `json:"results"`
	Params     map[string]any    `json:"params"`
	Type       string            `json:"type"`
	Pagination fixturePagination `json:"pagination"`
}

var headcoverMaterials = []string{"knit", "wool", "leather", "velvet", "fleece", "canvas"}

// StrayHeadcoversListings returns the 17 active listings of the fixture shop.
func StrayHeadcoversListings() []FixtureListing {
	listings := make([]FixtureListing, 0, 17)
	for i := 0; i < 17; i++ {
		material := headcoverMaterials[i%len(headcoverMaterials)]
		listings = append(listings, FixtureListing{
			ListingID:   int64(700000000 + i),
			State:       "active",
			Title:       fmt.Sprintf("Rick &amp; Morty Pickle Rick Driver Headcover (%s)", material),
			Description: fmt.Sprintf("Pickle Rick &amp; Morty driver headcover. Handmade &quot;%s&quot;.", material),
			Price:       "34.99",
		})
	}
	return listings
}

// NumberedListings returns n simple listings titled "Listing <first+i>".
func NumberedListings(first, n int) []FixtureListing {
	listings := make([]FixtureListing, 0, n)
	for i := 0; i < n; i++ {
		listings = append(listings, FixtureListing{
			ListingID:   int64(first + i),
			State:       "active",
			Title:       fmt.Sprintf("Listing %d", first+i),
			Description: fmt.Sprintf("Description %d", first+i),
			Price:       "1.00",
		})
	}
	return listings
}

// ListingsBody builds an active listings response body for one page.
// A negative nextOffset marks the last page.
func ListingsBody(count int, listings []FixtureListing, limit, offset, nextOffset int) string {
	p := fixturePagination{
		EffectiveLimit:  limit,
		EffectiveOffset: offset,
		EffectivePage:   offset/limit + 1,
	}
	if nextOffset >= 0 {
		nextPage := p.EffectivePage + 1
		p.NextOffset = &nextOffset
		p.NextPage = &nextPage
	}

	if listings == nil {
		listings = []FixtureListing{}
	}

	body := fixtureListingsBody{
		Count:      count,
		Results:    listings,
		Params:     map[string]any{"limit": limit, "offset": offset},
		Type:       "Listing",
		Pagination: p,
	}

	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ShopBody builds a shop response body.
func ShopBody(shopID string, activeCount int) string {
	return fmt.Sprintf(`{"count":1,"results":[{"shop_id":12345678,"shop_name":%q,"listing_active_count":%d}],"params":{"shop_id":%q},"type":"Shop","pagination":{}}`,
		shopID, activeCount, shopID)
}
