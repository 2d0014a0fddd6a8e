package models

import (
	"encoding/json"
	"fmt"
)

// Raw record keys. These are the JSON keys and the raw CSV column names.
const (
	KeyName         = "name"
	KeyRating       = "rating"
	KeyReviewCount  = "review_count"
	KeyCategory     = "category"
	KeyAddress      = "address"
	KeyWebsite      = "website"
	KeyPhone        = "phone"
	KeyPlusCode     = "plus_code"
	KeyHours        = "hours"
	KeyPriceLevel   = "price_level"
	KeyDescription  = "description"
	KeyAttributes   = "attributes"
	KeyPopularTimes = "popular_times"
	KeyURL          = "url"
	KeyError        = "error"
)

// PlaceRecord is one harvested (or attempted) place.
//
// A record is either a best-effort detail record, where every field is
// present and possibly empty, or an error record carrying only URL and Error.
// Rating and ReviewCount are kept as the raw text found on the page.
type PlaceRecord struct {
	URL          string
	Name         string
	Address      string
	Category     string
	Rating       string
	ReviewCount  string
	Phone        string
	Website      string
	PlusCode     string
	Hours        string
	PriceLevel   string
	Description  string
	Attributes   string
	PopularTimes string

	// Error is non-empty only when detail extraction failed wholesale.
	Error string
}

// ErrorRecord builds the degraded record for a URL whose extraction failed.
func ErrorRecord(url string, err error) PlaceRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return PlaceRecord{URL: url, Error: msg}
}

// Failed reports whether r is an error record.
func (r PlaceRecord) Failed() bool {
	return r.Error != ""
}

// Set assigns a field by its raw key. It returns false for unknown keys.
func (r *PlaceRecord) Set(key, value string) bool {
	switch key {
	case KeyName:
		r.Name = value
	case KeyRating:
		r.Rating = value
	case KeyReviewCount:
		r.ReviewCount = value
	case KeyCategory:
		r.Category = value
	case KeyAddress:
		r.Address = value
	case KeyWebsite:
		r.Website = value
	case KeyPhone:
		r.Phone = value
	case KeyPlusCode:
		r.PlusCode = value
	case KeyHours:
		r.Hours = value
	case KeyPriceLevel:
		r.PriceLevel = value
	case KeyDescription:
		r.Description = value
	case KeyAttributes:
		r.Attributes = value
	case KeyPopularTimes:
		r.PopularTimes = value
	case KeyURL:
		r.URL = value
	case KeyError:
		r.Error = value
	default:
		return false
	}
	return true
}

// Map returns the keys this record carries. Error records expose only url
// and error; detail records expose every field and never error.
func (r PlaceRecord) Map() map[string]string {
	if r.Failed() {
		return map[string]string{KeyURL: r.URL, KeyError: r.Error}
	}
	return map[string]string{
		KeyURL:          r.URL,
		KeyName:         r.Name,
		KeyRating:       r.Rating,
		KeyReviewCount:  r.ReviewCount,
		KeyCategory:     r.Category,
		KeyAddress:      r.Address,
		KeyWebsite:      r.Website,
		KeyPhone:        r.Phone,
		KeyPlusCode:     r.PlusCode,
		KeyHours:        r.Hours,
		KeyPriceLevel:   r.PriceLevel,
		KeyDescription:  r.Description,
		KeyAttributes:   r.Attributes,
		KeyPopularTimes: r.PopularTimes,
	}
}

func (r PlaceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *PlaceRecord) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = PlaceRecord{}
	for k, v := range m {
		if !r.Set(k, v) {
			return fmt.Errorf("place record: unknown key %q", k)
		}
	}
	return nil
}
