package parser

import (
	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		p.errors = append(p.errors, diagnostics.NewError(
			diagnostics.ErrP005,
			p.curToken,
			"expression too complex: recursion depth limit exceeded",
		))
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !isSeparator(p.peekToken.Type) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

// parseIdentifierOrCall handles a bare name. Followed by '(' it is an
// implicit-self method call.
func (p *Parser) parseIdentifierOrCall() ast.Expression {
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.peekTokenIs(token.LPAREN) {
		return ident
	}
	call := &ast.CallExpression{Token: p.curToken, Method: ident}
	p.nextToken()
	args, end, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	call.Arguments = args
	call.Range = source.Span{Start: ident.Token.Offset, End: end}
	return call
}

func (p *Parser) parseSelf() ast.Expression {
	return &ast.SelfExpression{Token: p.curToken}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	return &ast.IntegerLiteral{Token: p.curToken, Value: p.curToken.Literal.(int64)}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	return &ast.FloatLiteral{Token: p.curToken, Value: p.curToken.Literal.(float64)}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal.(string)}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
	}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	// Allow newline after operator (e.g., x && \n y)
	p.skipNewlines()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parseAssignExpression is right associative: a = b = 1.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	name, ok := left.(*ast.Identifier)
	if !ok {
		p.errors = append(p.errors, diagnostics.NewError(
			diagnostics.ErrP003,
			p.curToken,
			"cannot assign to "+left.String(),
		))
		return nil
	}
	expression := &ast.AssignExpression{Token: p.curToken, Name: name}
	p.nextToken()
	p.skipNewlines()
	expression.Value = p.parseExpression(ASSIGN - 1)
	if expression.Value == nil {
		return nil
	}
	return expression
}

// parseMethodCall parses ".name" or ".name(args)" after a receiver.
func (p *Parser) parseMethodCall(receiver ast.Expression) ast.Expression {
	p.skipPeekNewlines()
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	call := &ast.CallExpression{
		Token:    p.curToken,
		Receiver: receiver,
		Method:   &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
	}
	end := p.curToken.End
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		args, argsEnd, ok := p.parseCallArguments()
		if !ok {
			return nil
		}
		call.Arguments = args
		end = argsEnd
	}
	call.Range = source.Span{Start: receiver.Span().Start, End: end}
	return call
}

// parseCallArguments parses "(a, b)" with curToken on '(' and returns the
// end offset of the closing paren.
func (p *Parser) parseCallArguments() ([]ast.Expression, int, bool) {
	args, ok := p.parseExpressionList(token.RPAREN)
	return args, p.curToken.End, ok
}

func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, bool) {
	var list []ast.Expression

	p.skipPeekNewlines()
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	p.nextToken()
	p.skipNewlines()
	for {
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)
		p.skipPeekNewlines()
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
		p.skipNewlines()
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}
	elements, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	list.Elements = elements
	list.Range = source.Span{Start: list.Token.Offset, End: p.curToken.End}
	return list
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	p.skipNewlines()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	exp.Range = source.Span{Start: left.Span().Start, End: p.curToken.End}
	return exp
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	group := &ast.GroupedExpression{Token: p.curToken}
	p.nextToken() // consume '('
	p.skipNewlines()
	group.Inner = p.parseExpression(LOWEST)
	if group.Inner == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	group.Range = source.Span{Start: group.Token.Offset, End: p.curToken.End}
	return group
}

func (p *Parser) parseIfExpression() ast.Expression {
	expression := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)
	if expression.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Consequence = p.parseBlockExpression()
	if expression.Consequence == nil {
		return nil
	}
	end := expression.Consequence.Range.End

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			alt := p.parseIfExpression()
			if alt == nil {
				return nil
			}
			expression.Alternative = alt
			end = alt.Span().End
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			alt := p.parseBlockExpression()
			if alt == nil {
				return nil
			}
			expression.Alternative = alt
			end = alt.Range.End
		}
	}

	expression.Range = source.Span{Start: expression.Token.Offset, End: end}
	return expression
}

func (p *Parser) parseWhileExpression() ast.Expression {
	expression := &ast.WhileExpression{Token: p.curToken}

	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)
	if expression.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockExpression()
	if expression.Body == nil {
		return nil
	}
	expression.Range = source.Span{Start: expression.Token.Offset, End: expression.Body.Range.End}
	return expression
}

// parseBlockLiteral parses a bare block used as an expression.
func (p *Parser) parseBlockLiteral() ast.Expression {
	if block := p.parseBlockExpression(); block != nil {
		return block
	}
	return nil
}
