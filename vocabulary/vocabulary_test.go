package vocabulary

import (
	"testing"

	"github.com/c360/wikigraph/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantsAreValidIRIs(t *testing.T) {
	terms := []rdf.IRI{
		RDFType, RDFProperty, RDFStatement, RDFSubject, RDFPredicate,
		RDFObject, RDFValue, RDFFirst, RDFRest, RDFNil, RDFLangString,
		RDFHTML, RDFXMLLiteral,
		RDFSClass, RDFSResource, RDFSLiteral, RDFSDatatype, RDFSLabel,
		RDFSComment, RDFSDomain, RDFSRange, RDFSSubClassOf,
		RDFSSubPropertyOf, RDFSSeeAlso, RDFSIsDefinedBy, RDFSMember,
		XSDString, XSDBoolean, XSDInteger, XSDDecimal, XSDDouble,
		XSDFloat, XSDDate, XSDTime, XSDDateTime, XSDDuration, XSDAnyURI,
	}

	seen := map[rdf.IRI]bool{}
	for _, term := range terms {
		// Every unchecked constant must survive a full validation pass.
		parsed, err := rdf.ParseIRI(term.Value())
		require.NoError(t, err, "constant %s", term)
		assert.Equal(t, term, parsed)

		assert.False(t, seen[term], "duplicate constant %s", term)
		seen[term] = true
	}
}

func TestWellKnownValues(t *testing.T) {
	assert.Equal(t, "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>", RDFType.String())
	assert.Equal(t, "<http://www.w3.org/2000/01/rdf-schema#label>", RDFSLabel.String())
	assert.Equal(t, "<http://www.w3.org/2001/XMLSchema#dateTime>", XSDDateTime.String())
}
