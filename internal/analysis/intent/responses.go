package intent

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

func threatDetail(a threat.Alert) string {
	return fmt.Sprintf("I can see you have an active \"%s\" threat with %s severity.\n\n"+
		"**Threat Details:**\n"+
		"• Type: %s\n"+
		"• Severity: %s\n"+
		"• Source IP: %s\n"+
		"• Description: %s\n\n"+
		"Would you like me to help you resolve this specific threat or explain what it means?",
		a.Type, a.Severity, a.Type, strings.ToUpper(string(a.Severity)), a.IP, a.Description)
}

func threatResolution(a threat.Alert) string {
	return fmt.Sprintf("I can help you resolve the \"%s\" threat. Here's my recommended approach:\n\n"+
		"1. **Quick Resolution:**\n"+
		"   • Click the resolve button next to the threat\n"+
		"   • This will mark it as handled\n\n"+
		"2. **Thorough Investigation:**\n"+
		"   • Review the threat details\n"+
		"   • Check related logs\n"+
		"   • Implement preventive measures\n\n"+
		"3. **Follow-up:**\n"+
		"   • Monitor for similar threats\n"+
		"   • Update security policies if needed\n\n"+
		"Would you like me to guide you through the resolution process for this specific threat?",
		a.Type)
}

const bruteForceReply = `For brute force attacks, I recommend:

1. **Immediate Actions:**
   • Block the suspicious IP address
   • Enable account lockout policies
   • Review failed login patterns

2. **Prevention:**
   • Implement rate limiting
   • Use CAPTCHA for login attempts
   • Enable multi-factor authentication

3. **Monitoring:**
   • Set up alerts for multiple failed attempts
   • Monitor login patterns from unusual locations

Would you like me to help you implement any of these solutions?`

const malwareReply = `For malware detection, here's what I recommend you do:

1. **Immediate Response:**
   • Isolate the affected system
   • Run full system scan with updated antivirus
   • Check for unauthorized network connections

2. **Investigation:**
   • Analyze the malware signature
   • Check system logs for entry point
   • Review recent file downloads/executions

3. **Recovery:**
   • Remove infected files
   • Update security patches
   • Restore from clean backup if needed

Should I help you with the isolation process?`

const intrusionReply = `For intrusion attempts, follow these steps:

1. **Containment:**
   • Block the source IP immediately
   • Disconnect affected systems if necessary
   • Preserve evidence for analysis

2. **Assessment:**
   • Determine the scope of the intrusion
   • Check for data exfiltration
   • Review system integrity

3. **Response:**
   • Patch any exploited vulnerabilities
   • Strengthen access controls
   • Update incident response procedures

Do you need help with the containment process?`

const dataBreachReply = `For data breach incidents, follow this critical response plan:

1. **Immediate Response (First 24 hours):**
   • Isolate affected systems
   • Preserve all evidence
   • Notify key stakeholders
   • Document everything

2. **Investigation:**
   • Determine scope and impact
   • Identify compromised data
   • Trace the attack vector
   • Assess regulatory requirements

3. **Notification & Compliance:**
   • Notify affected parties
   • Report to authorities if required
   • Engage legal counsel
   • Prepare public statements

4. **Recovery:**
   • Patch vulnerabilities
   • Implement additional security
   • Restore from clean backups
   • Monitor for further activity

This is a serious incident. Do you need help with the immediate response steps?`

const ransomwareReply = `For ransomware attacks, time is critical. Take these steps now:

1. **Immediate Actions:**
   • Disconnect infected systems from network
   • Do NOT pay the ransom
   • Document the ransom note and demands
   • Contact law enforcement

2. **Containment:**
   • Isolate all affected systems
   • Disable network shares
   • Change all passwords
   • Check for lateral movement

3. **Recovery:**
   • Restore from clean backups
   • Rebuild compromised systems
   • Update all security patches
   • Implement additional monitoring

4. **Prevention:**
   • Regular backups (offline)
   • Employee training
   • Email filtering
   • Network segmentation

This is an emergency situation. Do you need immediate assistance?`

const bestPracticesReply = `Here are essential security best practices:

🔒 **Access Control:**
   • Multi-factor authentication (MFA)
   • Principle of least privilege
   • Regular access reviews
   • Strong password policies

🛡️ **Network Security:**
   • Firewall configuration
   • Network segmentation
   • VPN for remote access
   • Regular security updates

📊 **Monitoring & Detection:**
   • SIEM implementation
   • Log monitoring
   • Intrusion detection systems
   • Regular security assessments

📚 **Training & Awareness:**
   • Security awareness training
   • Phishing simulations
   • Incident response drills
   • Regular policy updates

Would you like me to elaborate on any of these areas?`

const helpReply = `I'm your AI security assistant! Here's what I can help you with:

🔍 **Threat Analysis:**
   • Explain different types of threats
   • Assess threat severity and impact
   • Provide context about security events

🛠️ **Resolution Guidance:**
   • Guided solutions for threats
   • Best practices for security response
   • Preventive measures and advice

📊 **Security Insights:**
   • Explain security concepts
   • Help understand log entries
   • Offer practical security advice

💬 **General Support:**
   • Answer security questions
   • Explain technical terms
   • Provide guidance on security policies

What would you like to know about?`

const greetingReply = "Hello! 👋 I'm here to help you with any security concerns. I can see you have a threat detection system running. How can I assist you today?"

const severityReply = `Security threat severity levels help prioritize responses:

🔴 **Critical:**
   • Immediate response required
   • System compromise likely
   • Data breach in progress
   • 24/7 incident response

🟠 **High:**
   • Response within hours
   • Potential system impact
   • Requires investigation
   • May need containment

🟡 **Medium:**
   • Response within 24 hours
   • Limited system impact
   • Monitor for escalation
   • Standard procedures

🟢 **Low:**
   • Response within days
   • Minimal system impact
   • Routine handling
   • Documentation required

How can I help you assess the severity of your current threats?`

// FallbackReplies are the clarification prompts used when no rule matches.
var FallbackReplies = []string{
	"I understand you're asking about security. Could you provide more specific details about what you'd like to know?",
	"That's an interesting security question. Let me help you understand this better. Could you clarify what specific aspect you're concerned about?",
	"I'm here to help with security matters. To provide the best assistance, could you give me more context about your question?",
	"Security is a complex topic. I'd be happy to help you understand this better. What specific information are you looking for?",
}
