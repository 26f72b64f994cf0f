// Package model defines the licence records exchanged between ingestion,
// storage and the map engine.
package model

import "encoding/json"

// GeoReference is one candidate location reference on a raw record.
type GeoReference struct {
	Type     Text   `json:"type"`
	Easting  Number `json:"easting"`
	Northing Number `json:"northing"`
}

// RawRecord is a licence record exactly as the registry search API returns
// it. Every field is tolerant of type drift.
type RawRecord struct {
	ID                     Text           `json:"id"`
	LicenceNo              Text           `json:"licenceNo"`
	Licensee               Text           `json:"licensee"`
	Location               Text           `json:"location"`
	LocationDistrictCodes  StringList     `json:"locationDistrictCodes"`
	LocationGeoReferences  []GeoReference `json:"locationGeoReferences"`
	RefFrequency           Number         `json:"refFrequency"`
	LowerBound             Number         `json:"lowerBound"`
	UpperBound             Number         `json:"upperBound"`
	Power                  Text           `json:"power"`
	ConfigType             Text           `json:"configType"`
	LicenceTypeCode        Text           `json:"licenceTypeCode"`
	LicenceTypeDescription Text           `json:"licenceTypeDescription"`
	LicenceStatus          Text           `json:"licenceStatus"`
	Suppressed             Text           `json:"suppressed"`
	CommencementDate       Text           `json:"commencementDate"`
	ExpiryDate             Text           `json:"expiryDate"`
	CertificationDate      Text           `json:"certificationDate"`
	LastUpdatedDate        Text           `json:"lastUpdatedDate"`
}

// Record is a normalised licence record. Records are built once during
// normalisation and treated as read-only afterwards.
type Record struct {
	ID                     string    `json:"id"`
	LicenceNo              string    `json:"licenceNo"`
	Licensee               string    `json:"licensee"`
	Location               string    `json:"location"`
	DistrictCodes          []string  `json:"locationDistrictCodes"`
	RefFrequencyMHz        *float64  `json:"refFrequencyMHz"`
	BandCode               string    `json:"bandCode"`
	CarrierKey             string    `json:"carrierKey"`
	LowerBoundMHz          *float64  `json:"lowerBoundMHz"`
	UpperBoundMHz          *float64  `json:"upperBoundMHz"`
	BandwidthMHz           *float64  `json:"bandwidthMHz"`
	Power                  *string   `json:"power"`
	ConfigType             *string   `json:"configType"`
	LicenceTypeCode        *string   `json:"licenceTypeCode"`
	LicenceTypeDescription *string   `json:"licenceTypeDescription"`
	LicenceStatus          *string   `json:"licenceStatus"`
	Suppressed             *bool     `json:"suppressed"`
	CommencementDate       *Date     `json:"commencementDate"`
	ExpiryDate             *Date     `json:"expiryDate"`
	CertificationDate      *Date     `json:"certificationDate"`
	LastUpdatedDate        *Date     `json:"lastUpdatedDate"`
	Lat                    *float64  `json:"lat"`
	Lon                    *float64  `json:"lon"`
	GeoSource              GeoSource `json:"geoSource"`
}

type recordAlias Record

// recordJSON is the persisted form. geoSourceKind travels next to the
// display tag so a configurable projected tag reloads with the right kind.
type recordJSON struct {
	recordAlias
	GeoSourceKind string `json:"geoSourceKind"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{recordAlias: recordAlias(r), GeoSourceKind: r.GeoSource.Kind.String()})
}

// UnmarshalJSON implements json.Unmarshaler. Dates that do not parse
// reload as absent.
func (r *Record) UnmarshalJSON(b []byte) error {
	var aux recordJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = Record(aux.recordAlias)
	if aux.GeoSourceKind != "" {
		r.GeoSource = ParseGeoSourceWithKind(r.GeoSource.String(), aux.GeoSourceKind)
	}
	for _, d := range []**Date{&r.CommencementDate, &r.ExpiryDate, &r.CertificationDate, &r.LastUpdatedDate} {
		if *d != nil && (*d).IsZero() {
			*d = nil
		}
	}
	return nil
}

// HasCoordinates reports whether the record can be placed on a map.
func (r *Record) HasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

// DistrictNames returns the display names of the record's district codes.
func (r *Record) DistrictNames() []string {
	out := make([]string, len(r.DistrictCodes))
	for i, c := range r.DistrictCodes {
		out[i] = DistrictName(c)
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
