package mitab

import (
	"encoding/xml"
	"fmt"
)

// EntrySet is the root of the hierarchical interaction document. A result
// page converts into a single entry holding one interaction per record.
type EntrySet struct {
	XMLName xml.Name `xml:"entrySet" json:"-"`
	Level   int      `xml:"level,attr" json:"level"`
	Version int      `xml:"version,attr" json:"version"`
	Entries []Entry  `xml:"entry" json:"entries"`
}

type Entry struct {
	InteractionList InteractionList `xml:"interactionList" json:"interaction_list"`
	AttributeList   *AttributeList  `xml:"attributeList,omitempty" json:"attribute_list,omitempty"`
}

type InteractionList struct {
	Interactions []Interaction `xml:"interaction" json:"interactions"`
}

type Interaction struct {
	Names           *Names        `xml:"names,omitempty" json:"names,omitempty"`
	Participants    []Participant `xml:"participantList>participant" json:"participants"`
	InteractionType string        `xml:"interactionType,omitempty" json:"interaction_type,omitempty"`
	Confidence      string        `xml:"confidenceList>confidence,omitempty" json:"confidence,omitempty"`
}

type Participant struct {
	ID      string   `xml:"interactor>primaryRef" json:"id"`
	Aliases []string `xml:"interactor>names>alias,omitempty" json:"aliases,omitempty"`
	Taxid   string   `xml:"interactor>organism>ncbiTaxId,omitempty" json:"taxid,omitempty"`
}

type Names struct {
	ShortLabel string `xml:"shortLabel" json:"short_label"`
}

// AttributeList carries provenance annotations attached to an entry.
type AttributeList struct {
	Attributes []Attribute `xml:"attribute" json:"attributes"`
}

type Attribute struct {
	Name  string `xml:"name,attr,omitempty" json:"name,omitempty"`
	Value string `xml:",chardata" json:"value"`
}

// Marshal renders the document as indented XML.
func (es *EntrySet) Marshal() (string, error) {
	out, err := xml.MarshalIndent(es, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal entry set: %w", err)
	}
	return xml.Header + string(out), nil
}

// ToEntrySet converts a page of records into an entry-set document. An empty
// page yields an empty document. Malformed records (no interactor on either
// side) abort the conversion so partial documents never leave this function.
func ToEntrySet(records []Record) (*EntrySet, error) {
	es := &EntrySet{Level: 2, Version: 5}
	if len(records) == 0 {
		return es, nil
	}

	interactions := make([]Interaction, 0, len(records))
	for i, r := range records {
		if r.InteractorA == "" || r.InteractorB == "" {
			return nil, fmt.Errorf("record %d: interaction is missing an interactor", i)
		}

		in := Interaction{
			Names: &Names{ShortLabel: r.InteractorA + "-" + r.InteractorB},
			Participants: []Participant{
				{ID: r.InteractorA, Aliases: r.AliasesA, Taxid: r.TaxidA},
				{ID: r.InteractorB, Aliases: r.AliasesB, Taxid: r.TaxidB},
			},
		}
		if len(r.InteractionTypes) > 0 {
			in.InteractionType = r.InteractionTypes[0]
		}
		if len(r.Confidences) > 0 {
			in.Confidence = r.Confidences[0]
		}
		interactions = append(interactions, in)
	}

	es.Entries = []Entry{{InteractionList: InteractionList{Interactions: interactions}}}
	return es, nil
}
