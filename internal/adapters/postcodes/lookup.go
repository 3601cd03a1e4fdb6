package postcodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/obs"
)

type postcodeResult struct {
	Postcode      string   `json:"postcode"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Region        *string  `json:"region"`
	AdminDistrict *string  `json:"admin_district"`
}

type lookupResponse struct {
	Status int             `json:"status"`
	Result *postcodeResult `json:"result"`
}

type reverseResponse struct {
	Status int              `json:"status"`
	Result []postcodeResult `json:"result"`
}

type validateResponse struct {
	Status int   `json:"status"`
	Result *bool `json:"result"`
}

// LookupPostcode resolves a postcode via GET /postcodes/{postcode}.
func (c *Client) LookupPostcode(ctx context.Context, postcode string) (_ domain.ResolvedLocation, err error) {
	defer obs.Time(ctx, "postcodes.LookupPostcode")(&err)

	var loc domain.ResolvedLocation
	err = c.fetch(ctx, "/postcodes/"+url.PathEscape(postcode), nil, func(r io.Reader) error {
		var decoded lookupResponse
		if err := json.NewDecoder(r).Decode(&decoded); err != nil {
			return fmt.Errorf("decode lookup response: %w", err)
		}
		if decoded.Result == nil {
			return errors.New("lookup response has no result")
		}

		l, err := decoded.Result.toLocation()
		if err != nil {
			return err
		}
		loc = l
		return nil
	})
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("lookup postcode %q: %w", postcode, err)
	}

	return loc, nil
}

// NearestPostcode reverse geocodes a point via GET /postcodes?lon=&lat=.
// The provider orders results nearest first.
func (c *Client) NearestPostcode(ctx context.Context, pt domain.Coordinates) (_ domain.ResolvedLocation, err error) {
	defer obs.Time(ctx, "postcodes.NearestPostcode")(&err)

	q := url.Values{}
	q.Set("lon", strconv.FormatFloat(pt.Lon, 'f', -1, 64))
	q.Set("lat", strconv.FormatFloat(pt.Lat, 'f', -1, 64))
	q.Set("limit", "1")

	var loc domain.ResolvedLocation
	err = c.fetch(ctx, "/postcodes", q, func(r io.Reader) error {
		var decoded reverseResponse
		if err := json.NewDecoder(r).Decode(&decoded); err != nil {
			return fmt.Errorf("decode reverse geocode response: %w", err)
		}
		if len(decoded.Result) == 0 {
			return fmt.Errorf("%w: no postcode near (%v, %v)", domain.ErrNotFound, pt.Lat, pt.Lon)
		}

		l, err := decoded.Result[0].toLocation()
		if err != nil {
			return err
		}
		loc = l
		return nil
	})
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("reverse geocode (%v, %v): %w", pt.Lat, pt.Lon, err)
	}

	return loc, nil
}

// ValidatePostcode asks the provider whether a postcode exists via
// GET /postcodes/{postcode}/validate.
func (c *Client) ValidatePostcode(ctx context.Context, postcode string) (_ bool, err error) {
	defer obs.Time(ctx, "postcodes.ValidatePostcode")(&err)

	var valid bool
	err = c.fetch(ctx, "/postcodes/"+url.PathEscape(postcode)+"/validate", nil, func(r io.Reader) error {
		var decoded validateResponse
		if err := json.NewDecoder(r).Decode(&decoded); err != nil {
			return fmt.Errorf("decode validate response: %w", err)
		}
		if decoded.Result == nil {
			return errors.New("validate response has no result")
		}

		valid = *decoded.Result
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("validate postcode %q: %w", postcode, err)
	}

	return valid, nil
}

// Terminated or unmapped postcodes come back with null coordinates; there is
// no point to resolve, so they count as not found rather than malformed.
func (p postcodeResult) toLocation() (domain.ResolvedLocation, error) {
	pc := domain.NormalizePostcode(p.Postcode)
	if pc == "" {
		return domain.ResolvedLocation{}, errors.New("result has no postcode")
	}
	if p.Latitude == nil || p.Longitude == nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %s has no coordinates", domain.ErrNotFound, pc)
	}

	loc := domain.ResolvedLocation{
		Postcode:    pc,
		Coordinates: domain.Coordinates{Lat: *p.Latitude, Lon: *p.Longitude},
	}
	if err := loc.Coordinates.Validate(); err != nil {
		return domain.ResolvedLocation{}, err
	}
	if p.Region != nil {
		loc.Region = *p.Region
	}
	if p.AdminDistrict != nil {
		loc.District = *p.AdminDistrict
	}

	return loc, nil
}
