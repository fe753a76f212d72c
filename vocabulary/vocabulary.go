// Package vocabulary provides ready-to-use rdf.IRI constants for the basic
// W3C vocabularies WikiGraph emits and matches against.
//
// Every value is built once with rdf.NewIRIUnchecked at package
// initialization and never mutated afterwards, so they are safe to share
// across goroutines without synchronization.
//
// References:
// - RDF 1.1: https://www.w3.org/TR/rdf11-concepts/
// - RDF Schema: https://www.w3.org/TR/rdf-schema/
// - XML Schema Datatypes: https://www.w3.org/TR/xmlschema11-2/
package vocabulary

import "github.com/c360/wikigraph/rdf"

// Namespace bases.
const (
	RDFBase  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSBase = "http://www.w3.org/2000/01/rdf-schema#"
	XSDBase  = "http://www.w3.org/2001/XMLSchema#"
)

// RDF 1.1 vocabulary.
var (
	// RDFType states that the subject is an instance of a class.
	RDFType = rdf.NewIRIUnchecked(RDFBase + "type")
	// RDFProperty is the class of RDF properties.
	RDFProperty = rdf.NewIRIUnchecked(RDFBase + "Property")
	// RDFStatement is the class of RDF statements.
	RDFStatement = rdf.NewIRIUnchecked(RDFBase + "Statement")
	// RDFSubject is the subject of the subject RDF statement.
	RDFSubject = rdf.NewIRIUnchecked(RDFBase + "subject")
	// RDFPredicate is the predicate of the subject RDF statement.
	RDFPredicate = rdf.NewIRIUnchecked(RDFBase + "predicate")
	// RDFObject is the object of the subject RDF statement.
	RDFObject = rdf.NewIRIUnchecked(RDFBase + "object")
	// RDFValue is the idiomatic property used for structured values.
	RDFValue = rdf.NewIRIUnchecked(RDFBase + "value")
	// RDFFirst is the first item in the subject RDF list.
	RDFFirst = rdf.NewIRIUnchecked(RDFBase + "first")
	// RDFRest is the rest of the subject RDF list after the first item.
	RDFRest = rdf.NewIRIUnchecked(RDFBase + "rest")
	// RDFNil is the empty RDF list.
	RDFNil = rdf.NewIRIUnchecked(RDFBase + "nil")
	// RDFLangString is the class of language-tagged string literals.
	RDFLangString = rdf.NewIRIUnchecked(RDFBase + "langString")
	// RDFHTML is the class of HTML literal values.
	RDFHTML = rdf.NewIRIUnchecked(RDFBase + "HTML")
	// RDFXMLLiteral is the class of XML literal values.
	RDFXMLLiteral = rdf.NewIRIUnchecked(RDFBase + "XMLLiteral")
)

// RDF Schema vocabulary.
var (
	// RDFSClass is the class of classes.
	RDFSClass = rdf.NewIRIUnchecked(RDFSBase + "Class")
	// RDFSResource is the class of everything.
	RDFSResource = rdf.NewIRIUnchecked(RDFSBase + "Resource")
	// RDFSLiteral is the class of literal values.
	RDFSLiteral = rdf.NewIRIUnchecked(RDFSBase + "Literal")
	// RDFSDatatype is the class of RDF datatypes.
	RDFSDatatype = rdf.NewIRIUnchecked(RDFSBase + "Datatype")
	// RDFSLabel provides a human-readable name for the subject.
	RDFSLabel = rdf.NewIRIUnchecked(RDFSBase + "label")
	// RDFSComment provides a description of the subject resource.
	RDFSComment = rdf.NewIRIUnchecked(RDFSBase + "comment")
	// RDFSDomain is a domain of the subject property.
	RDFSDomain = rdf.NewIRIUnchecked(RDFSBase + "domain")
	// RDFSRange is a range of the subject property.
	RDFSRange = rdf.NewIRIUnchecked(RDFSBase + "range")
	// RDFSSubClassOf states that the subject is a subclass of a class.
	RDFSSubClassOf = rdf.NewIRIUnchecked(RDFSBase + "subClassOf")
	// RDFSSubPropertyOf states that the subject is a subproperty of a property.
	RDFSSubPropertyOf = rdf.NewIRIUnchecked(RDFSBase + "subPropertyOf")
	// RDFSSeeAlso points at further information about the subject.
	RDFSSeeAlso = rdf.NewIRIUnchecked(RDFSBase + "seeAlso")
	// RDFSIsDefinedBy points at the definition of the subject resource.
	RDFSIsDefinedBy = rdf.NewIRIUnchecked(RDFSBase + "isDefinedBy")
	// RDFSMember is a member of the subject resource.
	RDFSMember = rdf.NewIRIUnchecked(RDFSBase + "member")
)

// XML Schema datatypes used in typed literals.
var (
	XSDString   = rdf.NewIRIUnchecked(XSDBase + "string")
	XSDBoolean  = rdf.NewIRIUnchecked(XSDBase + "boolean")
	XSDInteger  = rdf.NewIRIUnchecked(XSDBase + "integer")
	XSDDecimal  = rdf.NewIRIUnchecked(XSDBase + "decimal")
	XSDDouble   = rdf.NewIRIUnchecked(XSDBase + "double")
	XSDFloat    = rdf.NewIRIUnchecked(XSDBase + "float")
	XSDDate     = rdf.NewIRIUnchecked(XSDBase + "date")
	XSDTime     = rdf.NewIRIUnchecked(XSDBase + "time")
	XSDDateTime = rdf.NewIRIUnchecked(XSDBase + "dateTime")
	XSDDuration = rdf.NewIRIUnchecked(XSDBase + "duration")
	XSDAnyURI   = rdf.NewIRIUnchecked(XSDBase + "anyURI")
)
