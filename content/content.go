package content

import "net/url"
import "strings"

// Genre is one of the labels the classifier was trained on.
type Genre string

const (
	Blues     Genre = "blues"
	Classical Genre = "classical"
	Country   Genre = "country"
	Disco     Genre = "disco"
	HipHop    Genre = "hiphop"
	Jazz      Genre = "jazz"
	Metal     Genre = "metal"
	Pop       Genre = "pop"
	Reggae    Genre = "reggae"
	Rock      Genre = "rock"
)

// Genres lists the known genres in vocabulary order.
var Genres = []Genre{Blues, Classical, Country, Disco, HipHop, Jazz, Metal, Pop, Reggae, Rock}

// ParseGenre reports whether label is a known genre.
func ParseGenre(label string) (Genre, bool) {
	for _, g := range Genres {
		if string(g) == label {
			return g, true
		}
	}
	return "", false
}

// Bundle is the media shown for a genre.
type Bundle struct {
	Genre   Genre     `json:"genre,omitempty"`
	Images  [3]string `json:"images"`
	Videos  [3]string `json:"videos"`
	Texts   [3]string `json:"texts"`
	Default bool      `json:"default"`
}

func same(s string) [3]string {
	return [3]string{s, s, s}
}

var bundles = map[Genre]Bundle{
	Disco: {
		Genre:  Disco,
		Images: same("https://i.ibb.co/DYRXfhr/tenor.gif"),
		Videos: [3]string{
			"https://youtu.be/I_izvAbhExY?si=HxpKfg098BfLDtyW",
			"https://youtu.be/yURRmWtbTbo?si=Utom01m0eX3P6sZK",
			"https://youtu.be/CS9OO0S5w2k?si=v7n75cjv6iDEpLho",
		},
		Texts: same("디스코~~"),
	},
	Blues: {
		Genre:  Blues,
		Images: same("https://i.ibb.co/7YgGLdN/image.jpg"),
		Videos: [3]string{
			"https://youtu.be/4zAThXFOy2c?si=6yL37t7qeRF6gNvd",
			"https://youtu.be/71Gt46aX9Z4?si=9AxWcxGKutLfQKUB",
			"https://youtu.be/SgXSomPE_FY?si=01EMEwoh6aRKPvDT",
		},
		Texts: same("블루스~~"),
	},
	Classical: {
		Genre:  Classical,
		Images: same("https://i.ibb.co/3k7wmkZ/14668.webp"),
		Videos: [3]string{
			"https://youtu.be/l0GN40EL1VU?si=ueYMu6WwoDe9WwSO",
			"https://youtu.be/4exkCrFCBps?si=j1JyYf35P66Rz08O",
			"https://youtu.be/p29JUpsOSTE?si=xBBtvgALxiADuZHE",
		},
		Texts: same("클래식~~"),
	},
	Country: {
		Genre:  Country,
		Images: same("https://i.ibb.co/WVJP2hL/funny-country-music-memes-2.jpg"),
		Videos: [3]string{
			"https://youtu.be/7qaHdHpSjX8?si=SkmYtU-ow6kmTBZ6",
			"https://youtu.be/dRX0wDNK6S4?si=Vl40DjWjQTv6HwWz",
			"https://youtu.be/WBDpb7SwSgU?si=7g3el6N5VHOhVjGW",
		},
		Texts: same("컨트리~~"),
	},
	HipHop: {
		Genre:  HipHop,
		Images: same("https://i.ibb.co/sJNvxwV/images.jpg"),
		Videos: [3]string{
			"https://youtu.be/DmWWqogr_r8?si=XOHGRx5O7SQEsxxS",
			"https://youtu.be/S9bCLPwzSC0?si=vHEK7ZjkfeaHXOI6",
			"https://youtu.be/tvTRZJ-4EyI?si=dgQQh2G6RYwu5n4V",
		},
		Texts: same("힙합~~"),
	},
	Jazz: {
		Genre:  Jazz,
		Images: same("https://i.ibb.co/w6K3sNw/10d723cdc89427f05a38f350103ed792.jpg"),
		Videos: [3]string{
			"https://youtu.be/Cv9NSR-2DwM?si=nx66HKo5SoH9CakP",
			"https://youtu.be/ylXk1LBvIqU?si=-PPM6GP9wcUG_ZMN",
			"https://youtu.be/-488UORrfJ0?si=UZVnsAVC4N-kaSz9",
		},
		Texts: same("재즈~~"),
	},
}

// DefaultBundle is returned for labels without curated content.
var DefaultBundle = Bundle{
	Images:  same("https://via.placeholder.com/300"),
	Videos:  same("https://www.youtube.com/watch?v=3JZ_D3ELwOQ"),
	Texts:   same("기본 텍스트"),
	Default: true,
}

// Resolve returns the bundle for label. It never fails.
func Resolve(label string) Bundle {
	if b, ok := bundles[Genre(label)]; ok {
		return b
	}
	return DefaultBundle
}

// Curated reports whether g has its own bundle.
func Curated(g Genre) bool {
	_, ok := bundles[g]
	return ok
}

// EmbedURL rewrites a YouTube watch or share link into its embeddable form.
// Other links are returned unchanged.
func EmbedURL(video string) string {
	u, err := url.Parse(video)
	if err != nil {
		return video
	}
	var id string
	switch strings.TrimPrefix(u.Host, "www.") {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		}
	}
	if id == "" {
		return video
	}
	return "https://www.youtube.com/embed/" + id
}
