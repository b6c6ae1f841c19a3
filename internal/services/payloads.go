package services

import "encoding/xml"

// dbsEnvelope is the <dbs><db/>...</dbs> root shared by list and detail endpoints.
type dbsEnvelope[T any] struct {
	XMLName xml.Name `xml:"dbs"`
	Items   []T      `xml:"db"`
}

type boxofsEnvelope struct {
	XMLName xml.Name        `xml:"boxofs"`
	Items   []BoxofficeItem `xml:"boxof"`
}

// statusEnvelope reads the returncode/errmsg pair KOPIS sends with HTTP 200 on rejected requests.
type statusEnvelope struct {
	Items []struct {
		ReturnCode string `xml:"returncode"`
		ErrMsg     string `xml:"errmsg"`
	} `xml:",any"`
}

// VenueListItem is a row of the facility listing (prfplc).
type VenueListItem struct {
	FacilityName string `xml:"fcltynm"`
	FacilityID   string `xml:"mt10id"`
	HallCount    string `xml:"mt13cnt"`
	FacilityType string `xml:"fcltychartr"`
	Province     string `xml:"sidonm"`
	City         string `xml:"gugunnm"`
	OpeningYear  string `xml:"opende"`
}

// VenueDetail is the facility detail record (prfplc/{id}).
type VenueDetail struct {
	FacilityName string       `xml:"fcltynm"`
	FacilityID   string       `xml:"mt10id"`
	HallCount    string       `xml:"mt13cnt"`
	FacilityType string       `xml:"fcltychartr"`
	OpeningYear  string       `xml:"opende"`
	Seats        string       `xml:"seatscale"`
	Phone        string       `xml:"telno"`
	Website      string       `xml:"relateurl"`
	Address      string       `xml:"adres"`
	Latitude     string       `xml:"la"`
	Longitude    string       `xml:"lo"`
	Halls        []HallDetail `xml:"mt13s>mt13"`
}

// HallDetail is a stage nested in a facility detail.
type HallDetail struct {
	Name   string `xml:"prfplcnm"`
	HallID string `xml:"mt13id"`
	Seats  string `xml:"seatscale"`
}

// ConcertListItem is a row of the performance listing (pblprfr).
type ConcertListItem struct {
	PerformanceID string `xml:"mt20id"`
	Title         string `xml:"prfnm"`
	StartDate     string `xml:"prfpdfrom"`
	EndDate       string `xml:"prfpdto"`
	FacilityName  string `xml:"fcltynm"`
	Poster        string `xml:"poster"`
	Area          string `xml:"area"`
	Genre         string `xml:"genrenm"`
	OpenRun       string `xml:"openrun"`
	State         string `xml:"prfstate"`
}

// ConcertDetail is the performance detail record (pblprfr/{id}).
type ConcertDetail struct {
	PerformanceID    string   `xml:"mt20id"`
	FacilityID       string   `xml:"mt10id"`
	Title            string   `xml:"prfnm"`
	StartDate        string   `xml:"prfpdfrom"`
	EndDate          string   `xml:"prfpdto"`
	FacilityName     string   `xml:"fcltynm"`
	Cast             string   `xml:"prfcast"`
	Crew             string   `xml:"prfcrew"`
	Runtime          string   `xml:"prfruntime"`
	Age              string   `xml:"prfage"`
	Company          string   `xml:"entrpsnm"`
	CompanyPlan      string   `xml:"entrpsnmP"`
	CompanyAgency    string   `xml:"entrpsnmA"`
	CompanyHost      string   `xml:"entrpsnmH"`
	CompanySponsor   string   `xml:"entrpsnmS"`
	PriceInfo        string   `xml:"pcseguidance"`
	Poster           string   `xml:"poster"`
	Synopsis         string   `xml:"sty"`
	Area             string   `xml:"area"`
	Genre            string   `xml:"genrenm"`
	OpenRun          string   `xml:"openrun"`
	Visit            string   `xml:"visit"`
	Child            string   `xml:"child"`
	Daehakro         string   `xml:"daehakro"`
	Festival         string   `xml:"festival"`
	UpdatedAt        string   `xml:"updatedate"`
	State            string   `xml:"prfstate"`
	ScheduleGuidance string   `xml:"dtguidance"`
	IntroductionURLs []string `xml:"styurls>styurl"`
	Relates          []Relate `xml:"relates>relate"`
}

// Relate is a ticket vendor link in a performance detail.
type Relate struct {
	Name string `xml:"relatenm"`
	URL  string `xml:"relateurl"`
}

// BoxofficeItem is a ranked row of the box-office endpoint.
type BoxofficeItem struct {
	VenueName        string `xml:"prfplcnm"`
	SeatCount        string `xml:"seatcnt"`
	Rank             string `xml:"rnum"`
	Poster           string `xml:"poster"`
	Period           string `xml:"prfpd"`
	PerformanceID    string `xml:"mt20id"`
	Title            string `xml:"prfnm"`
	Genre            string `xml:"cate"`
	PerformanceCount string `xml:"prfdtcnt"`
	Area             string `xml:"area"`
}
