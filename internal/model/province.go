package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Province is a two-letter Canadian province or territory code.
type Province string

// ProvinceInfo pairs a code with its English display name.
type ProvinceInfo struct {
	Code Province `json:"code"`
	Name string   `json:"name"`
}

// Provinces lists every province and territory in display order.
var Provinces = []ProvinceInfo{
	{Code: "AB", Name: "Alberta"},
	{Code: "BC", Name: "British Columbia"},
	{Code: "MB", Name: "Manitoba"},
	{Code: "NB", Name: "New Brunswick"},
	{Code: "NL", Name: "Newfoundland and Labrador"},
	{Code: "NS", Name: "Nova Scotia"},
	{Code: "NT", Name: "Northwest Territories"},
	{Code: "NU", Name: "Nunavut"},
	{Code: "ON", Name: "Ontario"},
	{Code: "PE", Name: "Prince Edward Island"},
	{Code: "QC", Name: "Quebec"},
	{Code: "SK", Name: "Saskatchewan"},
	{Code: "YT", Name: "Yukon"},
}

var provinceByName = func() map[string]Province {
	m := make(map[string]Province, len(Provinces))
	for _, p := range Provinces {
		m[strings.ToUpper(p.Name)] = p.Code
	}
	return m
}()

// IsProvinceCode reports whether code is a known two-letter code.
func IsProvinceCode(code string) bool {
	for _, p := range Provinces {
		if string(p.Code) == code {
			return true
		}
	}
	return false
}

// ProvinceFromLocation finds a province in a free-text location such as
// "Waterloo, ON" or "Québec City, Québec, Canada". Segments are split on
// commas and slashes and scanned from the end; accents are ignored.
func ProvinceFromLocation(location string) (Province, bool) {
	if strings.TrimSpace(location) == "" {
		return "", false
	}
	parts := strings.FieldsFunc(location, func(r rune) bool {
		return r == ',' || r == '/'
	})
	for i := len(parts) - 1; i >= 0; i-- {
		up := strings.ToUpper(stripAccents(strings.TrimSpace(parts[i])))
		if IsProvinceCode(up) {
			return Province(up), true
		}
		if code, ok := provinceByName[up]; ok {
			return code, true
		}
	}
	return "", false
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
