package azure

import (
	"encoding/xml"
	"fmt"
)

type ssmlSpeak struct {
	XMLName xml.Name  `xml:"speak"`
	Version string    `xml:"version,attr"`
	Xmlns   string    `xml:"xmlns,attr"`
	Lang    string    `xml:"xml:lang,attr"`
	Voice   ssmlVoice `xml:"voice"`
}

type ssmlVoice struct {
	Name    string      `xml:"name,attr"`
	Prosody ssmlProsody `xml:"prosody"`
}

type ssmlProsody struct {
	Rate string `xml:"rate,attr"`
	Text string `xml:",chardata"`
}

func buildSSML(text, voice, rate, language string) ([]byte, error) {
	doc, err := xml.Marshal(ssmlSpeak{
		Version: "1.0",
		Xmlns:   "http://www.w3.org/2001/10/synthesis",
		Lang:    language,
		Voice: ssmlVoice{
			Name:    voice,
			Prosody: ssmlProsody{Rate: rate, Text: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build ssml: %w", err)
	}
	return doc, nil
}
