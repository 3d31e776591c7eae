package main

import (
	"fmt"
	"os"
	"path/filepath"

	"evabot/internal/config"
)

// writeSampleCorpus seeds a starter corpus so a fresh install answers
// something out of the box. Existing files are left untouched.
func writeSampleCorpus(dir string) error {
	dir = config.ExpandPath(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create corpus directory: %w", err)
	}

	files := map[string]string{
		"topics.yaml":     sampleTopics,
		"properties.yaml": sampleProperties,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			logger.Info("corpus file exists, keeping it", "path", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", path, err)
		}
	}
	return nil
}

const sampleTopics = `topics:
  - id: etosha
    category: wildlife
    title: Etosha National Park
    keywords: [etosha, safari, lion, elephant, rhino, wildlife]
    body: >
      Etosha National Park is Namibia's flagship wildlife destination,
      built around a vast salt pan visible from space. The dry season
      (May to October) concentrates game at the waterholes, making it
      one of the easiest places in Africa to see lions, elephants, and
      black rhinos in a single day.

  - id: sossusvlei
    category: tourism
    title: Sossusvlei Dunes
    keywords: [sossusvlei, dune, desert, namib, deadvlei]
    body: >
      The red dunes of Sossusvlei rise up to 380 metres above the clay
      pans of the Namib Desert. Arrive before sunrise for the climb up
      Dune 45, then walk across to Deadvlei's ancient camel thorn
      skeletons. The gate at Sesriem opens an hour before sunrise.

  - id: swakopmund
    category: tourism
    title: Swakopmund
    keywords: [swakopmund, coast, adventure, beach]
    body: >
      Swakopmund is Namibia's adventure capital on the Atlantic coast,
      known for sandboarding, quad biking, and its German colonial
      architecture. The cold Benguela current keeps summers mild when
      the interior bakes.

  - id: himba
    category: culture
    title: The Himba People
    keywords: [himba, culture, kunene, otjize]
    body: >
      The Himba are semi-nomadic pastoralists of the Kunene region.
      Himba women are known for covering their skin and hair with
      otjize, a paste of butterfat and ochre that protects against the
      desert sun. Visits are possible through community-run tours.

  - id: visa
    category: other
    title: Visa Requirements
    keywords: [visa, entry, passport, immigration]
    body: >
      Most visitors from Europe, North America, and the Commonwealth
      receive a 90-day visa on arrival in Namibia. Passports must be
      valid for six months beyond the travel date with at least one
      blank page. Always confirm current rules with the nearest
      Namibian mission before flying.
`

const sampleProperties = `listings:
  - id: prop-001
    location: Klein Windhoek
    price: N$ 1,850,000
    description: >
      Three-bedroom family home with a braai area and mountain views,
      walking distance from the Klein Windhoek shopping strip.
    keywords: [windhoek, klein windhoek, house, family]

  - id: prop-002
    location: Swakopmund
    price: N$ 2,400,000
    description: >
      Modern two-bedroom beach apartment near the jetty, fully
      furnished, with secure parking. Strong holiday-rental record.
    keywords: [swakopmund, beach, apartment, coast]

  - id: prop-003
    location: Omaruru
    price: N$ 4,900,000
    description: >
      Working guest farm on 5,000 hectares with game fencing, four
      guest chalets, and a reliable borehole.
    keywords: [omaruru, farm, guest farm, lodge]
`
