// Package gazetteer holds the static list of named Miyakojima landmarks
// used for text-to-coordinate resolution. The list is immutable after
// process start and safe for concurrent reads.
package gazetteer

import (
	"strings"

	"github.com/islandworks/miyako-poi/internal/geo"
)

// Landmark is a named reference point on the island.
type Landmark struct {
	Name        string  `json:"name"`
	NameKana    string  `json:"nameKana,omitempty"`
	NameEnglish string  `json:"nameEnglish,omitempty"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address,omitempty"`
}

var landmarks = []Landmark{
	// Airports and ports.
	{Name: "宮古空港", NameKana: "みやこくうこう", NameEnglish: "Miyako Airport", Category: "transport", Latitude: 24.7828, Longitude: 125.2953, Address: "沖縄県宮古島市平良字下里1657-128"},
	{Name: "平良港", NameKana: "ひららこう", NameEnglish: "Hirara Port", Category: "transport", Latitude: 24.8039, Longitude: 125.2775, Address: "沖縄県宮古島市平良西里"},

	// Beaches and sightseeing.
	{Name: "与那覇前浜ビーチ", NameKana: "よなはまえはまビーチ", NameEnglish: "Yonaha Maehama Beach", Category: "beach", Latitude: 24.7289, Longitude: 125.2608, Address: "沖縄県宮古島市下地与那覇"},
	{Name: "砂山ビーチ", NameKana: "すなやまビーチ", NameEnglish: "Sunayama Beach", Category: "beach", Latitude: 24.8264, Longitude: 125.2644, Address: "沖縄県宮古島市平良荷川取"},
	{Name: "東平安名崎", NameKana: "ひがしへんなざき", NameEnglish: "Higashi-Hennazaki", Category: "sightseeing", Latitude: 24.7169, Longitude: 125.4678, Address: "沖縄県宮古島市城辺保良"},
	{Name: "池間大橋", NameKana: "いけまおおはし", NameEnglish: "Ikema Bridge", Category: "sightseeing", Latitude: 24.9333, Longitude: 125.2833, Address: "沖縄県宮古島市平良池間"},
	{Name: "伊良部大橋", NameKana: "いらぶおおはし", NameEnglish: "Irabu Bridge", Category: "sightseeing", Latitude: 24.8228, Longitude: 125.2506, Address: "沖縄県宮古島市平良久貝"},
	{Name: "来間大橋", NameKana: "くりまおおはし", NameEnglish: "Kurima Bridge", Category: "sightseeing", Latitude: 24.7361, Longitude: 125.2722, Address: "沖縄県宮古島市下地来間"},

	// Town and shopping.
	{Name: "西里大通り", NameKana: "にしざとおおどおり", NameEnglish: "Nishizato Street", Category: "shopping", Latitude: 24.8047, Longitude: 125.2817, Address: "沖縄県宮古島市平良西里"},
	{Name: "公設市場", NameKana: "こうせついちば", NameEnglish: "Public Market", Category: "shopping", Latitude: 24.8058, Longitude: 125.2819, Address: "沖縄県宮古島市平良下里"},
	{Name: "イオンタウン宮古", NameKana: "イオンタウンみやこ", NameEnglish: "AEON Town Miyako", Category: "shopping", Latitude: 24.7889, Longitude: 125.2814, Address: "沖縄県宮古島市平良松原631"},
	{Name: "サンエー宮古島シティ", NameKana: "サンエーみやこじまシティ", NameEnglish: "San-A Miyakojima City", Category: "shopping", Latitude: 24.7981, Longitude: 125.2792, Address: "沖縄県宮古島市平良下里南真久底2511-43"},

	// Public facilities.
	{Name: "宮古島市役所", NameKana: "みやこじましやくしょ", NameEnglish: "Miyakojima City Hall", Category: "public", Latitude: 24.8047, Longitude: 125.2814, Address: "沖縄県宮古島市平良西里1140"},
	{Name: "宮古病院", NameKana: "みやこびょういん", NameEnglish: "Miyako Hospital", Category: "hospital", Latitude: 24.7972, Longitude: 125.2828, Address: "沖縄県宮古島市平良下里427-1"},

	// Resort area.
	{Name: "シギラリゾート", NameKana: "シギラリゾート", NameEnglish: "Shigira Resort", Category: "resort", Latitude: 24.7319, Longitude: 125.3614, Address: "沖縄県宮古島市上野新里"},

	// Outlying islands.
	{Name: "池間島", NameKana: "いけまじま", NameEnglish: "Ikema Island", Category: "island", Latitude: 24.9361, Longitude: 125.2667, Address: "沖縄県宮古島市池間"},
	{Name: "伊良部島", NameKana: "いらぶじま", NameEnglish: "Irabu Island", Category: "island", Latitude: 24.8333, Longitude: 125.2000, Address: "沖縄県宮古島市伊良部"},
	{Name: "下地島空港", NameKana: "しもじしまくうこう", NameEnglish: "Shimojishima Airport", Category: "transport", Latitude: 24.8267, Longitude: 125.1450, Address: "沖縄県宮古島市伊良部佐和田"},
	{Name: "来間島", NameKana: "くりまじま", NameEnglish: "Kurima Island", Category: "island", Latitude: 24.7281, Longitude: 125.2592, Address: "沖縄県宮古島市下地来間"},
}

// All returns the full landmark list. Callers must not mutate it.
func All() []Landmark {
	return landmarks
}

// FindByName matches text against name, kana reading, and English name,
// case-insensitively. A landmark matches on exact equality or when either
// string contains the other. The first match in list order wins.
func FindByName(text string) (Landmark, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return Landmark{}, false
	}
	for _, lm := range landmarks {
		for _, name := range []string{lm.Name, lm.NameKana, lm.NameEnglish} {
			if name == "" {
				continue
			}
			n := strings.ToLower(name)
			if n == needle || strings.Contains(n, needle) || strings.Contains(needle, n) {
				return lm, true
			}
		}
	}
	return Landmark{}, false
}

// Nearest returns the landmark closest to the given coordinates. The list
// is never empty, so there is always an answer.
func Nearest(lat, lng float64) Landmark {
	nearest := landmarks[0]
	min := geo.Distance(lat, lng, nearest.Latitude, nearest.Longitude)
	for _, lm := range landmarks[1:] {
		if d := geo.Distance(lat, lng, lm.Latitude, lm.Longitude); d < min {
			min = d
			nearest = lm
		}
	}
	return nearest
}
