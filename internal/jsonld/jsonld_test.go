package jsonld

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canconf/internal/model"
)

func TestNewItemList(t *testing.T) {
	events := []model.Event{
		{
			Name:             "Hack the North",
			Date:             "September 12-14, 2025",
			Location:         "Waterloo, ON",
			Website:          "https://hackthenorth.com",
			Province:         "ON",
			Type:             model.TypeHackathon,
			Tags:             []string{"hackathon", "student"},
			IsStudentFocused: true,
		},
		{
			Name:     "Collision",
			Date:     "June 17-20, 2024",
			Location: "Toronto",
			Province: "ON",
			Type:     model.TypeConference,
		},
	}

	list := NewItemList(events)
	assert.Equal(t, 2, list.NumberOfItems)
	require.Len(t, list.Items, 2)

	first := list.Items[0]
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "hackathon in Waterloo, ON", first.Description)
	assert.Equal(t, "September 12-14, 2025", first.StartDate)
	assert.Equal(t, "Waterloo", first.Location.Address.AddressLocality)
	assert.Equal(t, "ON", first.Location.Address.AddressRegion)
	assert.Equal(t, "CA", first.Location.Address.AddressCountry)
	assert.Equal(t, "hackathon, student", first.Keywords)
	require.NotNil(t, first.Audience)
	assert.Equal(t, "Students", first.Audience.AudienceType)

	second := list.Items[1]
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, "Toronto", second.Location.Address.AddressLocality)
	assert.Nil(t, second.Audience)
	assert.Equal(t, "", second.Keywords)
}

func TestItemList_Marshal(t *testing.T) {
	data, err := NewItemList([]model.Event{{
		Name:     "Go Halifax",
		Date:     "October 8, 2025",
		Location: "Halifax, NS",
		Province: "NS",
		Type:     model.TypeMeetup,
	}}).Marshal()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "https://schema.org", doc["@context"])
	assert.Equal(t, "ItemList", doc["@type"])

	items := doc["itemListElement"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Event", item["@type"])
	assert.NotContains(t, item, "audience")
	assert.NotContains(t, item, "url")
	assert.Equal(t, OfflineAttendance, item["eventAttendanceMode"])
}

func TestNewItemList_Empty(t *testing.T) {
	data, err := NewItemList(nil).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"@context": "https://schema.org",
		"@type": "ItemList",
		"name": "Canadian Tech Events",
		"description": "List of tech conferences and hackathons in Canada",
		"numberOfItems": 0,
		"itemListElement": []
	}`, string(data))
}
