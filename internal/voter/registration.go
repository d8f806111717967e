package voter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Registration is what the register reports for a confirmed elector.
type Registration struct {
	Municipality      string
	ElectoralDistrict string
	DistrictLink      string
}

// ParseRegistration reads the home address section of the confirmation page.
// Each list item holds a label followed by a bold value or a link. Relative
// links are resolved against base.
func ParseRegistration(markup, base string) (Registration, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Registration{}, fmt.Errorf("failed to parse confirmation markup: %w", err)
	}

	var reg Registration
	doc.Find("ul li").Each(func(_ int, li *goquery.Selection) {
		label := strings.TrimSpace(li.Find("label").First().Text())
		value := li.Find("b, a").First()
		text := strings.TrimSpace(value.Text())

		switch {
		case strings.Contains(label, "Electoral district"):
			reg.ElectoralDistrict = text
			if goquery.NodeName(value) == "a" {
				if href, ok := value.Attr("href"); ok {
					reg.DistrictLink = resolveLink(base, href)
				}
			}
		case strings.Contains(label, "Municipality"):
			reg.Municipality = text
		}
	})
	return reg, nil
}

func resolveLink(base, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

func (r Registration) String() string {
	link := r.DistrictLink
	if link == "" {
		link = "n/a"
	}
	return fmt.Sprintf("Your voter registration info:\n\t- Municipality: %s\n\t- Electoral District: %s\n\t- Link: %s\n",
		r.Municipality, r.ElectoralDistrict, link)
}
