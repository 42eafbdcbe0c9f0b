package ris

import "slices"

// ReferenceType is a TY code with its description.
type ReferenceType struct {
	Code        string
	Description string
}

// Known reports whether the code is part of the standard RIS vocabulary.
func (t ReferenceType) Known() bool {
	_, ok := typeIndex[t.Code]
	return ok
}

func (t ReferenceType) String() string { return t.Code }

var referenceTypes = []ReferenceType{
	{"ABST", "Abstract"},
	{"ADVS", "Audiovisual material"},
	{"AGGR", "Aggregated database"},
	{"ANCIENT", "Ancient text"},
	{"ART", "Art work"},
	{"BILL", "Bill"},
	{"BLOG", "Blog"},
	{"BOOK", "Whole book"},
	{"CASE", "Case"},
	{"CHAP", "Book chapter"},
	{"CHART", "Chart"},
	{"CLSWK", "Classical work"},
	{"COMP", "Computer program"},
	{"CONF", "Conference proceeding"},
	{"CPAPER", "Conference paper"},
	{"CTLG", "Catalog"},
	{"DATA", "Data file"},
	{"DBASE", "Online database"},
	{"DICT", "Dictionary"},
	{"EBOOK", "Electronic book"},
	{"ECHAP", "Electronic book section"},
	{"EDBOOK", "Edited book"},
	{"EJOUR", "Electronic article"},
	{"ELEC", "Web page"},
	{"ENCYC", "Encyclopedia"},
	{"EQUA", "Equation"},
	{"FIGURE", "Figure"},
	{"GEN", "Generic"},
	{"GOVDOC", "Government document"},
	{"GRANT", "Grant"},
	{"HEAR", "Hearing"},
	{"ICOMM", "Internet communication"},
	{"INPR", "In press"},
	{"JFULL", "Journal (full)"},
	{"JOUR", "Journal"},
	{"LEGAL", "Legal rule or regulation"},
	{"MANSCPT", "Manuscript"},
	{"MAP", "Map"},
	{"MGZN", "Magazine article"},
	{"MPCT", "Motion picture"},
	{"MULTI", "Online multimedia"},
	{"MUSIC", "Music score"},
	{"NEWS", "Newspaper"},
	{"PAMP", "Pamphlet"},
	{"PAT", "Patent"},
	{"PCOMM", "Personal communication"},
	{"RPRT", "Report"},
	{"SER", "Serial publication"},
	{"SLIDE", "Slide"},
	{"SOUND", "Sound recording"},
	{"STAND", "Standard"},
	{"STAT", "Statute"},
	{"THES", "Thesis/Dissertation"},
	{"UNBILL", "Unenacted bill"},
	{"UNPB", "Unpublished work"},
	{"VIDEO", "Video recording"},
}

var typeIndex = func() map[string]int {
	m := make(map[string]int, len(referenceTypes))
	for i, t := range referenceTypes {
		m[t.Code] = i
	}
	return m
}()

// LookupType returns the ReferenceType for code. Codes outside the standard
// vocabulary are returned verbatim with an empty description and ok false.
func LookupType(code string) (ReferenceType, bool) {
	if i, ok := typeIndex[code]; ok {
		return referenceTypes[i], true
	}
	return ReferenceType{Code: code}, false
}

// ReferenceTypes returns the standard reference types sorted by code.
func ReferenceTypes() []ReferenceType {
	return slices.Clone(referenceTypes)
}
