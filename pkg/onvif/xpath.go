/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package onvif

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	ipAddressExpr = xpath.MustCompile(
		"//*[local-name()='GetNetworkInterfacesResponse']/*[local-name()='NetworkInterfaces']" +
			"/*[local-name()='IPv4']/*[local-name()='Config']/*/*[local-name()='Address']/text()")
	macAddressExpr = xpath.MustCompile(
		"//*[local-name()='GetNetworkInterfacesResponse']/*[local-name()='NetworkInterfaces']" +
			"/*[local-name()='Info']/*[local-name()='HwAddress']/text()")
	scopesExpr = xpath.MustCompile(
		"//*[local-name()='GetScopesResponse']/*[local-name()='Scopes']/*[local-name()='ScopeItem']/text()")
	profilesExpr = xpath.MustCompile(
		"//*[local-name()='GetProfilesResponse']/*[local-name()='Profiles']/@token")
	streamURIExpr = xpath.MustCompile(
		"//*[local-name()='GetStreamUriResponse']/*[local-name()='MediaUri']/*[local-name()='Uri']/text()")
)

func serviceExpr(namespace string) (*xpath.Expr, error) {
	if strings.ContainsAny(namespace, `'"`) {
		return nil, fmt.Errorf("%w: %q", errInvalidNamespace, namespace)
	}

	return xpath.Compile(fmt.Sprintf(
		"//*[local-name()='GetServicesResponse']/*[local-name()='Service' and *[local-name()='Namespace']/text() ='%s']"+
			"/*[local-name()='XAddr']/text()", namespace))
}

func parseDocument(data []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
	}

	return doc, nil
}

// firstString accepts a string result or a non-empty node-set.
func firstString(doc *xmlquery.Node, expr *xpath.Expr, what string) (string, error) {
	switch v := expr.Evaluate(xmlquery.CreateXPathNavigator(doc)).(type) {
	case string:
		return v, nil
	case *xpath.NodeIterator:
		if v.MoveNext() {
			return v.Current().Value(), nil
		}

		return "", fmt.Errorf("%w: %s", ErrElementNotFound, what)
	default:
		return "", fmt.Errorf("%w: %s is %T", ErrUnexpectedXPathType, what, v)
	}
}

// allStrings requires a node-set and returns the string value of every node.
func allStrings(doc *xmlquery.Node, expr *xpath.Expr, what string) ([]string, error) {
	iter, ok := expr.Evaluate(xmlquery.CreateXPathNavigator(doc)).(*xpath.NodeIterator)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a node-set", ErrUnexpectedXPathType, what)
	}

	values := []string{}

	for iter.MoveNext() {
		values = append(values, iter.Current().Value())
	}

	return values, nil
}

// stringValue takes the XPath string value of the result; empty is an error.
func stringValue(doc *xmlquery.Node, expr *xpath.Expr, what string) (string, error) {
	var s string

	switch v := expr.Evaluate(xmlquery.CreateXPathNavigator(doc)).(type) {
	case string:
		s = v
	case *xpath.NodeIterator:
		if v.MoveNext() {
			s = v.Current().Value()
		}
	case float64:
		s = fmt.Sprint(v)
	case bool:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, what)
	}

	return s, nil
}
