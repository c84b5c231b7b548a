package submission

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"admissions/internal/formschema"
	"admissions/internal/render"
	"admissions/pkg/types"
)

// Multipart part names understood by the applications endpoint.
const (
	PartInstituteID   = "instituteId"
	PartAcademicYear  = "academicYear"
	PartProgram       = "program"
	PartLeadID        = "leadId"
	PartPersonalData  = "personalData"
	PartEducationData = "educationData"
)

// DataPart returns the payload key a category's data is sent under.
func DataPart(category types.Category) string {
	if category == types.CategoryEducation {
		return PartEducationData
	}
	return PartPersonalData
}

// File is one uploaded document, sent under its field name.
type File struct {
	FieldName   string
	Category    types.Category
	FileName    string
	ContentType string
	Data        []byte
}

// Payload is everything one create or update request carries.
type Payload struct {
	InstituteID   string
	AcademicYear  string
	Program       string
	LeadID        string
	PersonalData  map[string]any
	EducationData map[string]any
	Files         []File
}

// Data returns the category's scalar map.
func (p *Payload) Data(category types.Category) map[string]any {
	if category == types.CategoryEducation {
		return p.EducationData
	}
	return p.PersonalData
}

type Input struct {
	Document     *types.FormDocument
	InstituteID  string
	AcademicYear string
	Program      string
	LeadID       string
	Values       map[types.Category]render.Values
	Files        map[types.Category]render.Files
}

// BuildPayload maps the wizard's values onto the request shape. Every non-file field of the
// schema appears in its category map; a field nobody filled in is sent as "". Files keep
// schema order.
func BuildPayload(in Input) (*Payload, error) {
	if strings.TrimSpace(in.InstituteID) == "" {
		return nil, types.NewValidationError(PartInstituteID, "Select an institute")
	}
	if strings.TrimSpace(in.Program) == "" {
		return nil, types.NewValidationError(PartProgram, "Select a program")
	}
	if in.Document == nil {
		return nil, fmt.Errorf("no form configuration for institute %s", in.InstituteID)
	}

	payload := &Payload{
		InstituteID:  in.InstituteID,
		AcademicYear: in.AcademicYear,
		Program:      strings.TrimSpace(in.Program),
		LeadID:       strings.TrimSpace(in.LeadID),
	}

	for _, category := range types.Categories {
		data := make(map[string]any)
		values := in.Values[category]
		files := in.Files[category]

		for _, f := range formschema.CategoryFields(in.Document, category) {
			if f.FieldType == types.FieldTypeFile {
				upload, ok := files[f.FieldName]
				if !ok || len(upload.Data) == 0 {
					continue
				}
				payload.Files = append(payload.Files, File{
					FieldName:   f.FieldName,
					Category:    category,
					FileName:    upload.FileName,
					ContentType: upload.ContentType,
					Data:        upload.Data,
				})
				continue
			}

			value, ok := values[f.FieldName]
			if !ok {
				data[f.FieldName] = ""
				continue
			}
			data[f.FieldName] = value.Payload(f.FieldType)
		}

		if category == types.CategoryEducation {
			payload.EducationData = data
		} else {
			payload.PersonalData = data
		}
	}

	return payload, nil
}

// WriteMultipart encodes the payload as the applications endpoint expects it and returns the
// request content type.
func (p *Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)

	fields := [][2]string{
		{PartInstituteID, p.InstituteID},
		{PartAcademicYear, p.AcademicYear},
		{PartProgram, p.Program},
	}
	if p.LeadID != "" {
		fields = append(fields, [2]string{PartLeadID, p.LeadID})
	}

	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", kv[0], err)
		}
	}

	for _, category := range types.Categories {
		data := p.Data(category)
		if data == nil {
			data = map[string]any{}
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", DataPart(category), err)
		}
		if err := mw.WriteField(DataPart(category), string(encoded)); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", DataPart(category), err)
		}
	}

	for _, file := range p.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.FieldName), escapeQuotes(file.FileName)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("failed to create part for %s: %w", file.FieldName, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return "", fmt.Errorf("failed to write file %s: %w", file.FieldName, err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
